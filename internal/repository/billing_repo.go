package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/rndvu/internal/db"
)

// ErrUnknownPayment is returned when a webhook names a payment we never created.
var ErrUnknownPayment = errors.New("unknown payment")

// BillingRepository provides data access for products, purchases and subscriptions.
type BillingRepository struct {
	db *gorm.DB
}

// NewBillingRepository creates a new repository bound to the given DB connection.
func NewBillingRepository(database *gorm.DB) *BillingRepository {
	return &BillingRepository{db: database}
}

// ListProducts returns the catalog ordered by price.
func (r *BillingRepository) ListProducts(ctx context.Context) ([]db.Product, error) {
	var products []db.Product
	err := r.db.WithContext(ctx).Order("price ASC, id ASC").Find(&products).Error
	return products, err
}

func (r *BillingRepository) GetProduct(ctx context.Context, id uint64) (*db.Product, error) {
	var p db.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BillingRepository) CreatePurchase(ctx context.Context, p *db.Purchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CompletePurchase applies a succeeded payment exactly once.
//
// Behavior:
//   - Unknown payment_id → ErrUnknownPayment.
//   - is_successful flips false→true with a conditional UPDATE; if another
//     delivery already flipped it, applied=false and nothing else changes.
//   - On the flip, the buyer's subscription is extended in the same transaction:
//     end = max(end, today) + duration_days, paid = true, count_days += duration_days.
func (r *BillingRepository) CompletePurchase(ctx context.Context, paymentID string, today time.Time) (applied bool, player *db.Player, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchase db.Purchase
		if err := tx.Where("payment_id = ?", paymentID).First(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownPayment
			}
			return err
		}

		flip := tx.Model(&db.Purchase{}).
			Where("id = ? AND is_successful = ?", purchase.ID, false).
			Update("is_successful", true)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return nil
		}
		applied = true

		var product db.Product
		if err := tx.First(&product, purchase.ProductID).Error; err != nil {
			return err
		}

		var p db.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, purchase.PlayerID).Error; err != nil {
			return err
		}

		start := today
		if p.SubscriptionEndDate != nil && p.SubscriptionEndDate.After(today) {
			start = *p.SubscriptionEndDate
		}
		end := start.AddDate(0, 0, product.DurationDays)

		var days int64
		if p.CountDaysPaidSubscription != nil {
			days = *p.CountDaysPaidSubscription
		}
		days += int64(product.DurationDays)

		if err := tx.Model(&p).Updates(map[string]any{
			"paid_subscription":            true,
			"subscription_end_date":        end,
			"count_days_paid_subscription": days,
		}).Error; err != nil {
			return err
		}
		p.PaidSubscription = true
		p.SubscriptionEndDate = &end
		p.CountDaysPaidSubscription = &days
		player = &p
		return nil
	})
	return applied, player, err
}

// SeedProducts inserts the default catalog when it is empty.
func (r *BillingRepository) SeedProducts(ctx context.Context) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&db.Product{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	products := []db.Product{
		{Name: "Подписка на 1 месяц", SubscriptionType: db.SubscriptionMonthly, DurationDays: 30, Price: 990},
		{Name: "Подписка на 1 год", SubscriptionType: db.SubscriptionYearly, DurationDays: 365, Price: 7990},
	}
	return r.db.WithContext(ctx).Create(&products).Error
}
