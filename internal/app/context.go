package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/rndvu/internal/cache"
	"github.com/oggyb/rndvu/internal/config"
	"github.com/oggyb/rndvu/internal/db"
)

// Notifier delivers out-of-band messages to players, e.g. through the Telegram bot.
type Notifier interface {
	NotifyMatch(ctx context.Context, a, b *db.Player) error
}

// PhotoStorage hands out presigned URLs for photo objects.
type PhotoStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Notifier   Notifier
	Storage    PhotoStorage
	Now        func() time.Time

	locMu   sync.Mutex
	locName string
	loc     *time.Location
}

// fallbackZone is used when the configured timezone cannot be loaded.
var fallbackZone = time.FixedZone("MSK", 3*60*60)

// New creates a new AppContext. Notifier and Storage are optional and may be
// attached afterwards.
func New(cfg *config.Config, database *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         database,
		RedisCache: rdb,
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Location resolves App.Timezone. An empty name is UTC; an unknown one
// falls back to a fixed UTC+3.
func (a *AppContext) Location() *time.Location {
	name := a.Config.App.Timezone
	a.locMu.Lock()
	defer a.locMu.Unlock()
	if a.loc != nil && a.locName == name {
		return a.loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		a.Logger.Warn("timezone not found, using UTC+3", "tz", name, "err", err)
		loc = fallbackZone
	}
	a.locName, a.loc = name, loc
	return loc
}

// Today is the current civil date in the configured timezone, stored at UTC
// midnight so it compares with DATE columns.
func (a *AppContext) Today() time.Time {
	y, m, d := a.Now().In(a.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PhotoURL resolves an object key to a readable URL. Without storage the key
// itself is returned.
func (a *AppContext) PhotoURL(ctx context.Context, key string) string {
	if a.Storage == nil || key == "" {
		return key
	}
	u, err := a.Storage.PresignGet(ctx, key)
	if err != nil {
		a.Logger.Warn("presign photo failed", "key", key, "err", err)
		return key
	}
	return u
}
