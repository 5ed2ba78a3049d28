package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/rndvu/internal/app"
)

// Registrar ties the admin routes into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the admin service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes mounts /admin on the public router behind the operator token.
func (r *Registrar) RegisterRoutes(public, _ *mux.Router) {
	h := NewHandler(NewAdminService(r.appCtx))

	sub := public.PathPrefix("/admin").Subrouter()
	sub.Use(h.Middleware)
	sub.HandleFunc("/blacklist/{tg_id}", h.Blacklist).Methods(http.MethodPost)
	sub.HandleFunc("/blacklist/{tg_id}", h.Unblacklist).Methods(http.MethodDelete)
	sub.HandleFunc("/cache/products", h.InvalidateProducts).Methods(http.MethodDelete)
	sub.HandleFunc("/jobs/{name}", h.RunJob).Methods(http.MethodPost)
}
