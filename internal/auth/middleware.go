package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oggyb/rndvu/internal/cache"
	"github.com/oggyb/rndvu/internal/config"
	svcErr "github.com/oggyb/rndvu/internal/errors"
	"github.com/oggyb/rndvu/internal/httpx"
	"github.com/oggyb/rndvu/internal/logger"
)

// User is the caller identity extracted from init data.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

type userKey struct{}

// WithUser stores u on ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the authenticated caller.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// Blacklist tells whether a Telegram id is banned.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, tgID int64) (bool, error)
}

var _ Blacklist = (*cache.RedisCache)(nil)

// Middleware authenticates every request it wraps.
type Middleware struct {
	cfg       *config.Config
	blacklist Blacklist
	log       *slog.Logger
}

func NewMiddleware(cfg *config.Config, bl Blacklist, log *slog.Logger) *Middleware {
	return &Middleware{cfg: cfg, blacklist: bl, log: log}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Handler resolves the caller and rejects the request when it cannot.
//
// Behavior:
//   - init data comes from X-Init-Data, then ?init_data=, then a form field.
//   - Test mode (X-Test-Mode / test_mode) is honored only when config allows it.
//   - Missing or invalid init data → 401; blacklisted caller → 403.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			httpx.Error(w, m.log, err)
			return
		}

		if m.blacklist != nil {
			banned, err := m.blacklist.IsBlacklisted(r.Context(), user.ID)
			if err != nil {
				httpx.Error(w, m.log, svcErr.Internal(err))
				return
			}
			if banned {
				m.log.Warn("blacklisted caller rejected", "tg_id", user.ID)
				httpx.Error(w, m.log, svcErr.Forbidden("Доступ запрещён"))
				return
			}
		}

		ctx := WithUser(r.Context(), user)
		ctx = logger.NewContext(ctx, logger.FromContext(r.Context()).With("tg_id", user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) resolve(r *http.Request) (User, error) {
	testMode := firstNonEmpty(r.Header.Get("X-Test-Mode"), r.URL.Query().Get("test_mode"))
	if truthy(testMode) && m.cfg.TestModeAllowed() {
		return User{ID: m.cfg.Auth.TestUserID, FirstName: "Test User", LanguageCode: "ru"}, nil
	}

	initData := firstNonEmpty(r.Header.Get("X-Init-Data"), r.URL.Query().Get("init_data"))
	if initData == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		initData = r.PostFormValue("init_data")
	}
	if initData == "" {
		return User{}, svcErr.Unauthorized("init_data отсутствует")
	}

	ok, claims := Verify(initData, m.cfg.Telegram.BotToken)
	if !ok {
		m.log.Debug("init data rejected")
		return User{}, svcErr.Unauthorized("Недопустимый init_data")
	}

	var u User
	if err := json.Unmarshal([]byte(claims["user"]), &u); err != nil || u.ID == 0 {
		return User{}, svcErr.Unauthorized("Неверный формат user данных")
	}
	return u, nil
}
