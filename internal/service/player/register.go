package player

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/rndvu/internal/app"
)

// Registrar ties the player routes into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the player service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes attaches the player endpoints. All of them need an authenticated caller.
func (r *Registrar) RegisterRoutes(_, private *mux.Router) {
	h := NewHandler(NewPlayerService(r.appCtx))

	private.HandleFunc("/player-info", h.Info).Methods(http.MethodPost)
	private.HandleFunc("/player/gender", h.SetGender).Methods(http.MethodPost)
	private.HandleFunc("/player/profile", h.Profile).Methods(http.MethodGet)
	private.HandleFunc("/player/profile", h.UpdateProfile).Methods(http.MethodPatch, http.MethodPut)
	private.HandleFunc("/player/photos/upload-url", h.UploadURL).Methods(http.MethodPost)
	private.HandleFunc("/player/photos", h.AddPhoto).Methods(http.MethodPost)
	private.HandleFunc("/player/photos/main", h.SetMainPhoto).Methods(http.MethodPost)
	private.HandleFunc("/player/verification", h.Verify).Methods(http.MethodPatch)
}
