package event

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/rndvu/internal/app"
)

// Registrar ties the event routes into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the event service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes attaches the event endpoints. /events/opposite is declared
// before /events/{id} so it is not taken for an id.
func (r *Registrar) RegisterRoutes(_, private *mux.Router) {
	h := NewHandler(NewEventService(r.appCtx))

	private.HandleFunc("/events/opposite", h.Opposite).Methods(http.MethodGet)
	private.HandleFunc("/events/opposite/{id:[0-9]+}", h.GetOpposite).Methods(http.MethodGet)

	private.HandleFunc("/events", h.List).Methods(http.MethodGet)
	private.HandleFunc("/events", h.Create).Methods(http.MethodPost)
	private.HandleFunc("/events/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	private.HandleFunc("/events/{id:[0-9]+}", h.Update).Methods(http.MethodPatch)
	private.HandleFunc("/events/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
}
