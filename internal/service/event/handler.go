package event

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

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.Error(w, logger.FromContext(r.Context()), err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in Input
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Ивент удален"})
}

// Opposite serves GET /events/opposite?city=&min_age=&max_age=&verification=&page=
func (h *Handler) Opposite(w http.ResponseWriter, r *http.Request) {
	var (
		f   OppositeFilters
		err error
	)
	f.City = r.URL.Query().Get("city")
	f.VerifiedOnly = httpx.QueryBool(r, "verification")
	if f.MinAge, err = httpx.QueryInt(r, "min_age"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.MaxAge, err = httpx.QueryInt(r, "max_age"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Page, err = httpx.Page(r); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Opposite(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) GetOpposite(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.GetOpposite(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}
