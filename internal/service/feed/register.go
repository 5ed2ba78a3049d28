package feed

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/rndvu/internal/app"
)

// Registrar ties the feed routes into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the feed service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) RegisterRoutes(_, private *mux.Router) {
	h := NewHandler(NewFeedService(r.appCtx))
	private.HandleFunc("/game/users", h.Users).Methods(http.MethodGet)
}
