package relationship

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/rndvu/internal/app"
)

// Registrar ties the relationship routes into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the relationship service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) RegisterRoutes(_, private *mux.Router) {
	h := NewHandler(NewRelationshipService(r.appCtx))

	private.HandleFunc("/sympathy", h.Express).Methods(http.MethodPost)
	private.HandleFunc("/sympathy", h.Mutual).Methods(http.MethodGet)
	private.HandleFunc("/sympathy", h.Remove).Methods(http.MethodDelete)

	private.HandleFunc("/favorites", h.Favorites).Methods(http.MethodGet)
	private.HandleFunc("/favorites", h.AddFavorite).Methods(http.MethodPost)
	private.HandleFunc("/favorites", h.RemoveFavorite).Methods(http.MethodDelete)

	private.HandleFunc("/user-likes", h.React).Methods(http.MethodPost)
	private.HandleFunc("/player/profile/detail", h.Detail).Methods(http.MethodGet)
}
