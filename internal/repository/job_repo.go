package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/rndvu/internal/db"
)

// JobRepository holds the bookkeeping of scheduled jobs.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new repository bound to the given DB connection.
func NewJobRepository(database *gorm.DB) *JobRepository {
	return &JobRepository{db: database}
}

func markRun(tx *gorm.DB, name, runKey string) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "run_key"}},
		DoNothing: true,
	}).Create(&db.JobRun{Name: name, RunKey: runKey})
	return res.RowsAffected == 1, res.Error
}

// DecrementSubscriptions burns one paid day per subscriber, once per runKey.
//
// Behavior:
//   - A second call with the same runKey is a no-op (applied=false).
//   - count_days_paid_subscription decreases by one where paid and > 0.
//   - paid_subscription turns false where the count reached 0 or is NULL.
//
// Example:
//
//	repo.DecrementSubscriptions(ctx, "2025-06-15")
func (r *JobRepository) DecrementSubscriptions(ctx context.Context, runKey string) (applied bool, expired int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := markRun(tx, "decrement_subscriptions", runKey)
		if err != nil || !ok {
			return err
		}
		applied = true

		if err := tx.Model(&db.Player{}).
			Where("paid_subscription = ? AND count_days_paid_subscription > 0", true).
			UpdateColumn("count_days_paid_subscription", gorm.Expr("count_days_paid_subscription - 1")).Error; err != nil {
			return err
		}

		res := tx.Model(&db.Player{}).
			Where("paid_subscription = ? AND (count_days_paid_subscription IS NULL OR count_days_paid_subscription <= 0)", true).
			UpdateColumn("paid_subscription", false)
		expired = res.RowsAffected
		return res.Error
	})
	return applied, expired, err
}
