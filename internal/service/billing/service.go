package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/cache"
	"github.com/oggyb/rndvu/internal/db"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/service/caller"
)

// Webhook event names sent by YooKassa.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventWaitingCapture   = "payment.waiting_for_capture"
	EventPaymentCanceled  = "payment.canceled"
	EventPaymentExpired   = "payment.expired"
	EventRefundSucceeded  = "refund.succeeded"
)

// Gateway creates payments at the provider.
type Gateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error)
}

type Service struct {
	appCtx  *app.AppContext
	players *repository.PlayerRepository
	billing *repository.BillingRepository
	gateway Gateway
}

func NewBillingService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		players: repository.NewPlayerRepository(appCtx.DB),
		billing: repository.NewBillingRepository(appCtx.DB),
		gateway: NewYooKassa(appCtx.Config),
	}
}

// Product is the catalog entry shown to players.
type Product struct {
	ID               uint64              `json:"id"`
	Name             string              `json:"name"`
	SubscriptionType db.SubscriptionType `json:"subscription_type"`
	DurationDays     int                 `json:"duration_days"`
	Price            int64               `json:"price"`
}

// Products returns the catalog, served from Redis while the cached copy is fresh.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	if _, err := caller.TgID(ctx); err != nil {
		return nil, err
	}

	var cached []Product
	err := s.appCtx.RedisCache.GetProducts(ctx, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.appCtx.Logger.Warn("product cache read failed", "err", err)
	}

	rows, err := s.billing.ListProducts(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]Product, 0, len(rows))
	for _, p := range rows {
		out = append(out, Product{
			ID:               p.ID,
			Name:             p.Name,
			SubscriptionType: p.SubscriptionType,
			DurationDays:     p.DurationDays,
			Price:            p.Price,
		})
	}
	if err := s.appCtx.RedisCache.SetProducts(ctx, out); err != nil {
		s.appCtx.Logger.Warn("product cache write failed", "err", err)
	}
	return out, nil
}

// CheckoutRequest is the body of POST /payments.
type CheckoutRequest struct {
	ProductID httpx.FlexInt `json:"product_id"`
	ReturnURL string        `json:"return_url"`
}

type CheckoutResponse struct {
	PaymentURL string `json:"payment_url"`
	PaymentID  string `json:"payment_id"`
}

// Checkout starts a payment for one product.
//
// Behavior:
//   - The payment is created at YooKassa first; the pending Purchase is
//     stored under the provider's payment id.
//   - A missing return_url falls back to the configured default.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	if req.ProductID <= 0 {
		return nil, svcErr.InvalidArgument("Укажите product_id")
	}
	p, err := caller.Player(ctx, s.players)
	if err != nil {
		return nil, err
	}
	product, err := s.billing.GetProduct(ctx, uint64(req.ProductID))
	if err != nil {
		if se := svcErr.As(err); se.Kind == svcErr.KindNotFound {
			return nil, svcErr.NotFound("Product not found")
		}
		return nil, svcErr.Map(err)
	}

	returnURL := strings.TrimSpace(req.ReturnURL)
	if returnURL == "" {
		returnURL = s.appCtx.Config.Billing.DefaultReturnURL
	}

	payment, err := s.gateway.CreatePayment(ctx, PaymentRequest{
		Amount:      product.Price,
		Description: "Оплата " + product.Name,
		ReturnURL:   returnURL,
		TgID:        p.TgID,
		ProductID:   product.ID,
	})
	if err != nil {
		return nil, svcErr.Internal(fmt.Errorf("create payment: %w", err))
	}

	if err := s.billing.CreatePurchase(ctx, &db.Purchase{
		PlayerID:  p.ID,
		ProductID: product.ID,
		PaymentID: payment.ID,
	}); err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("payment created", "tg_id", p.TgID, "product_id", product.ID, "payment_id", payment.ID)
	return &CheckoutResponse{PaymentURL: payment.ConfirmationURL, PaymentID: payment.ID}, nil
}

// Notification is the webhook body.
type Notification struct {
	Event  string `json:"event"`
	Object struct {
		ID       string `json:"id"`
		Metadata struct {
			TgID      httpx.FlexInt `json:"tg_id"`
			ProductID httpx.FlexInt `json:"product_id"`
		} `json:"metadata"`
	} `json:"object"`
}

// HandleNotification applies a webhook delivery.
//
// Behavior:
//   - payment.succeeded flips the matching Purchase once and extends the
//     buyer's subscription in the same transaction; a repeated delivery is
//     acknowledged without changes.
//   - Missing payment data or an unknown payment id is a validation error.
//   - Every other event is logged and acknowledged.
func (s *Service) HandleNotification(ctx context.Context, n Notification) error {
	log := s.appCtx.Logger.With("event", n.Event, "payment_id", n.Object.ID)

	if n.Event != EventPaymentSucceeded {
		switch n.Event {
		case EventWaitingCapture, EventPaymentCanceled, EventPaymentExpired, EventRefundSucceeded:
			log.Info("payment event acknowledged")
		default:
			log.Warn("unhandled payment event")
		}
		return nil
	}

	md := n.Object.Metadata
	if n.Object.ID == "" || md.TgID == 0 || md.ProductID == 0 {
		return svcErr.InvalidArgument("Missing payment data")
	}

	applied, player, err := s.billing.CompletePurchase(ctx, n.Object.ID, s.appCtx.Today())
	if errors.Is(err, repository.ErrUnknownPayment) {
		log.Warn("webhook for unknown payment", "tg_id", int64(md.TgID))
		return svcErr.InvalidArgument("Unknown payment")
	}
	if err != nil {
		return svcErr.Map(err)
	}
	if !applied {
		log.Info("payment already processed")
		return nil
	}

	if player.TgID != int64(md.TgID) {
		log.Warn("payment metadata names another player", "metadata_tg_id", int64(md.TgID), "tg_id", player.TgID)
	}
	log.Info("subscription extended",
		"tg_id", player.TgID,
		"subscription_end_date", player.SubscriptionEndDate.Format("2006-01-02"))
	return nil
}
