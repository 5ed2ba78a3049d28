package admin

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/logger"
)

// TokenHeader carries the operator token.
const TokenHeader = "X-Admin-Token"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Middleware rejects requests without a valid operator token.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Authorize(r.Header.Get(TokenHeader)); err != nil {
			logger.FromContext(r.Context()).Warn("admin access denied", "path", r.URL.Path)
			httpx.Error(w, nil, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pathTgID(r *http.Request) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)["tg_id"], 10, 64)
	if err != nil {
		return 0, svcErr.InvalidArgument("tg_id должен быть числом")
	}
	return v, nil
}

// Blacklist serves POST /admin/blacklist/{tg_id}
func (h *Handler) Blacklist(w http.ResponseWriter, r *http.Request) {
	tgID, err := pathTgID(r)
	if err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.Blacklist(r.Context(), tgID)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Unblacklist serves DELETE /admin/blacklist/{tg_id}
func (h *Handler) Unblacklist(w http.ResponseWriter, r *http.Request) {
	tgID, err := pathTgID(r)
	if err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.Unblacklist(r.Context(), tgID)
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// InvalidateProducts serves DELETE /admin/cache/products
func (h *Handler) InvalidateProducts(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.InvalidateProducts(r.Context()); err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunJob serves POST /admin/jobs/{name}
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RunJob(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
