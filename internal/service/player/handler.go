package player

import (
	"net/http"

	"github.com/oggyb/rndvu/internal/auth"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/logger"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, nil, svcErr.Unauthorized("init_data отсутствует"))
		return
	}
	resp, err := h.svc.Info(r.Context(), u)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) SetGender(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Gender string `json:"gender"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.SetGender(r.Context(), body.Gender)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Profile(r.Context())
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in ProfilePatch
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.UpdateProfile(r.Context(), in)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.UploadURL(r.Context(), body.FileName, body.ContentType)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ObjectKey string `json:"object_key"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.AddPhoto(r.Context(), body.ObjectKey)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) SetMainPhoto(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhotoID uint64 `json:"photo_id"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.SetMainPhoto(r.Context(), body.PhotoID)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Verify(r.Context()); err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"verification": true})
}
