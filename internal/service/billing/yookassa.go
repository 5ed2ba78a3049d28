package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/rndvu/internal/config"
)

const (
	currencyRUB    = "RUB"
	descriptionMax = 128
)

// PaymentRequest is what the checkout needs from the catalog and the caller.
type PaymentRequest struct {
	Amount      int64
	Description string
	ReturnURL   string
	TgID        int64
	ProductID   uint64
}

// Payment is the part of the YooKassa reply the checkout keeps.
type Payment struct {
	ID              string
	ConfirmationURL string
}

// YooKassa talks to the payments API over plain HTTPS with basic auth.
type YooKassa struct {
	baseURL   string
	shopID    string
	secretKey string
	client    *http.Client
}

func NewYooKassa(cfg *config.Config) *YooKassa {
	return &YooKassa{
		baseURL:   strings.TrimRight(cfg.Billing.APIURL, "/"),
		shopID:    cfg.Billing.ShopID,
		secretKey: cfg.Billing.SecretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type receiptItem struct {
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	Amount         amount `json:"amount"`
	VatCode        int    `json:"vat_code"`
	PaymentMode    string `json:"payment_mode"`
	PaymentSubject string `json:"payment_subject"`
}

type createPaymentBody struct {
	Amount       amount `json:"amount"`
	Confirmation struct {
		Type      string `json:"type"`
		ReturnURL string `json:"return_url"`
	} `json:"confirmation"`
	Capture     bool              `json:"capture"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	Receipt     struct {
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
		Items []receiptItem `json:"items"`
	} `json:"receipt"`
}

type createPaymentReply struct {
	ID           string `json:"id"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

// CreatePayment registers a one-stage redirect payment.
//
// Behavior:
//   - Every call carries a fresh Idempotence-Key.
//   - The receipt lists one item priced at the full amount with a synthetic
//     customer e-mail derived from the Telegram id.
//   - Any status other than 200/201 is an error carrying the response body.
func (y *YooKassa) CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	sum := amount{Value: fmt.Sprintf("%.2f", float64(req.Amount)), Currency: currencyRUB}

	var body createPaymentBody
	body.Amount = sum
	body.Confirmation.Type = "redirect"
	body.Confirmation.ReturnURL = req.ReturnURL
	body.Capture = true
	body.Description = req.Description
	body.Metadata = map[string]string{
		"tg_id":      strconv.FormatInt(req.TgID, 10),
		"product_id": strconv.FormatUint(req.ProductID, 10),
	}
	body.Receipt.Customer.Email = fmt.Sprintf("user_%d@astro.ru", req.TgID)
	body.Receipt.Items = []receiptItem{{
		Description:    truncate(req.Description, descriptionMax),
		Quantity:       "1.00",
		Amount:         sum,
		VatCode:        4,
		PaymentMode:    "full_payment",
		PaymentSubject: "commodity",
	}}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode payment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, y.baseURL+"/payments", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	httpReq.SetBasicAuth(y.shopID, y.secretKey)
	httpReq.Header.Set("Idempotence-Key", uuid.NewString())
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yookassa request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read yookassa reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("yookassa error %d: %s", resp.StatusCode, payload)
	}

	var reply createPaymentReply
	if err := json.Unmarshal(payload, &reply); err != nil {
		return nil, fmt.Errorf("decode yookassa reply: %w", err)
	}
	if reply.ID == "" || reply.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("yookassa reply without id or confirmation url")
	}
	return &Payment{ID: reply.ID, ConfirmationURL: reply.Confirmation.ConfirmationURL}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
