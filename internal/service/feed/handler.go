package feed

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

// Users serves GET /game/users?city=&min_age=&max_age=&page=&premium=
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	var (
		f   Filters
		err error
	)
	f.City = r.URL.Query().Get("city")
	f.Premium = httpx.QueryBool(r, "premium")
	if f.MinAge, err = httpx.QueryInt(r, "min_age"); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	if f.MaxAge, err = httpx.QueryInt(r, "max_age"); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	if f.Page, err = httpx.Page(r); err != nil {
		httpx.Error(w, nil, err)
		return
	}

	resp, err := h.svc.Users(r.Context(), f)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}
