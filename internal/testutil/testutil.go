// Package testutil wires in-memory SQLite, miniredis and seed helpers for tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/auth"
	"github.com/oggyb/rndvu/internal/cache"
	"github.com/oggyb/rndvu/internal/config"
	"github.com/oggyb/rndvu/internal/db"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
// The pool holds a single connection so transactions serialize like row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(db.Models()...))
	return gdb
}

// NewRedis starts a miniredis bound to the test lifetime.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// Config returns the defaults a service test needs.
func Config() *config.Config {
	cfg := &config.Config{}
	cfg.App.ENV = "test"
	cfg.Feed.PageSize = 10
	cfg.Feed.SkipRetention = 48 * time.Hour
	cfg.Auth.TestUserID = 123456789
	cfg.Telegram.BotToken = "123456:TEST"
	cfg.Telegram.WebAppURL = "https://app.example.com/"
	cfg.Billing.DefaultReturnURL = "https://app.example.com/"
	return cfg
}

// NewAppContext wires DB, Redis and a silent logger.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()
	gdb := NewDB(t)
	rc, mr := NewRedis(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.New(Config(), gdb, rc, log), mr
}

// PlayerSpec describes a seeded player. Zero values mean "default".
type PlayerSpec struct {
	TgID       int64
	Name       string
	Gender     db.Gender
	City       string
	Birth      *time.Time
	Photos     int
	Inactive   bool
	ShowAge    bool
	Verified   bool
	Registered time.Time
}

// CreatePlayer inserts a player with its profile and photos.
func CreatePlayer(t *testing.T, gdb *gorm.DB, spec PlayerSpec) *db.Player {
	t.Helper()

	p := &db.Player{
		TgID:      spec.TgID,
		FirstName: spec.Name,
		Username:  strings.ToLower(spec.Name),
		Gender:    spec.Gender,
		City:      spec.City,
	}
	if !spec.Registered.IsZero() {
		p.RegistrationDate = spec.Registered
	}
	require.NoError(t, gdb.Create(p).Error)

	// Boolean defaults are applied by the database on zero values.
	updates := map[string]any{}
	if spec.Inactive {
		updates["is_active"] = false
	}
	if spec.ShowAge {
		updates["hide_age_in_profile"] = false
	}
	if spec.Verified {
		updates["verification"] = true
	}
	if len(updates) > 0 {
		require.NoError(t, gdb.Model(p).Updates(updates).Error)
	}

	if spec.Gender.Valid() {
		prof := db.NewProfile(p.ID, spec.Gender)
		switch v := prof.(type) {
		case *db.ManProfile:
			v.BirthDate = spec.Birth
		case *db.WomanProfile:
			v.BirthDate = spec.Birth
		}
		require.NoError(t, gdb.Create(prof).Error)

		for i := 0; i < spec.Photos; i++ {
			require.NoError(t, gdb.Create(&db.Photo{
				PlayerID:   p.ID,
				Gender:     spec.Gender,
				ObjectKey:  fmt.Sprintf("photos/%d/%d.jpg", p.TgID, i),
				UploadedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
			}).Error)
		}
	}

	require.NoError(t, gdb.First(p, p.ID).Error)
	return p
}

// Birth returns a birth date making the player exactly years old today.
func Birth(years int) *time.Time {
	now := time.Now().UTC()
	d := time.Date(now.Year()-years, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Month() != now.Month() {
		// Feb 29 rolled into March.
		d = time.Date(now.Year()-years, time.February, 28, 0, 0, 0, 0, time.UTC)
	}
	return &d
}

// Date builds a UTC civil date.
func Date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// Router mounts registrars on one mux router used as both the public and private side.
// Authentication is simulated by Do.
func Router(regs ...interface {
	RegisterRoutes(public, private *mux.Router)
}) *mux.Router {
	r := mux.NewRouter()
	for _, reg := range regs {
		reg.RegisterRoutes(r, r)
	}
	return r
}

// Do sends a JSON request through h as the Telegram user tgID. A zero tgID
// sends it anonymously.
func Do(t *testing.T, h http.Handler, tgID int64, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if tgID != 0 {
		req = req.WithContext(auth.WithUser(req.Context(), auth.User{ID: tgID, FirstName: "Test"}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON unmarshals a recorded response body.
func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// FakeStorage presigns deterministic URLs without talking to S3.
type FakeStorage struct{}

func (FakeStorage) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://s3.test/upload/" + key, nil
}

func (FakeStorage) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.test/" + key, nil
}

// RecordingNotifier collects match notifications.
type RecordingNotifier struct {
	mu      sync.Mutex
	Matches [][2]int64
}

func (n *RecordingNotifier) NotifyMatch(_ context.Context, a, b *db.Player) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Matches = append(n.Matches, [2]int64{a.TgID, b.TgID})
	return nil
}

func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Matches)
}
