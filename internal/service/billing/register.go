package billing

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/rndvu/internal/app"
)

// Registrar ties the billing routes into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the billing service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes mounts the webhook on the public router; YooKassa does not
// carry Telegram init data.
func (r *Registrar) RegisterRoutes(public, private *mux.Router) {
	h := NewHandler(NewBillingService(r.appCtx))
	public.HandleFunc("/payments/webhook", h.Webhook).Methods(http.MethodPost)
	private.HandleFunc("/products", h.Products).Methods(http.MethodGet)
	private.HandleFunc("/payments", h.Checkout).Methods(http.MethodPost)
}
