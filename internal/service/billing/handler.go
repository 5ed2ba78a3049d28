package billing

import (
	"net/http"

	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/logger"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Products serves GET /products
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products(r.Context())
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

// Checkout serves POST /payments
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.Checkout(r.Context(), req)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Webhook serves POST /payments/webhook. YooKassa only looks at the status.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var n Notification
	if err := httpx.Decode(r, &n); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	if err := h.svc.HandleNotification(r.Context(), n); err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
