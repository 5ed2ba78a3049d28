package relationship

import (
	"net/http"
	"strconv"
	"strings"

	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/logger"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type targetBody struct {
	TgID httpx.FlexInt `json:"tg_id"`
	Skip bool          `json:"skip"`
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		httpx.Error(w, logger.FromContext(r.Context()), err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) decodeTarget(w http.ResponseWriter, r *http.Request) (targetBody, bool) {
	var body targetBody
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, nil, err)
		return body, false
	}
	return body, true
}

func (h *Handler) Express(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.Express(r.Context(), int64(body.TgID), body.Skip)
	h.reply(w, r, resp, err)
}

func (h *Handler) Mutual(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Mutual(r.Context())
	h.reply(w, r, resp, err)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.Remove(r.Context(), int64(body.TgID))
	h.reply(w, r, resp, err)
}

func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Favorites(r.Context())
	h.reply(w, r, resp, err)
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.AddFavorite(r.Context(), int64(body.TgID))
	h.reply(w, r, resp, err)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.RemoveFavorite(r.Context(), int64(body.TgID))
	h.reply(w, r, resp, err)
}

func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ToPlayerTgID httpx.FlexInt `json:"to_player_tg_id"`
		ReactionType string        `json:"reaction_type"`
	}
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, nil, err)
		return
	}
	resp, err := h.svc.React(r.Context(), int64(body.ToPlayerTgID), body.ReactionType)
	h.reply(w, r, resp, err)
}

// Detail serves GET /player/profile/detail?tg_id=
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	var tgID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("tg_id")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Error(w, nil, svcErr.InvalidArgument("tg_id должен быть числом"))
			return
		}
		tgID = v
	}
	resp, err := h.svc.Detail(r.Context(), tgID)
	h.reply(w, r, resp, err)
}
