package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/oggyb/rndvu/internal/cache"
	"github.com/oggyb/rndvu/internal/config"
	"github.com/oggyb/rndvu/internal/db"
	"github.com/oggyb/rndvu/internal/logger"
)

// Bootstrap loads .env and the config, initializes the global logger and
// connects to the database and Redis. component tags every log line.
func Bootstrap(ctx context.Context, component string) (*AppContext, func(), error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if component != "" {
		cfg.Log.Component = component
	}

	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	cleanup := func() {
		if err := redisCache.Close(); err != nil {
			log.Warn("redis close failed", "err", err)
		}
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return New(cfg, database, redisCache, log), cleanup, nil
}
