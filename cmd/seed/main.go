package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/logger"
	"github.com/oggyb/rndvu/internal/seed"
)

func main() {
	ctx := context.Background()

	appCtx, cleanup, err := app.Bootstrap(ctx, "seed")
	if err != nil {
		logger.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	if appCtx.Config.IsProduction() {
		appCtx.Logger.Error("refusing to seed a production database")
		return
	}

	stats, err := seed.Run(ctx, appCtx.DB, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		appCtx.Logger.Error("failed to seed", "err", err)
		return
	}
	appCtx.Logger.Info("seeding completed",
		"players", stats.Players, "sympathies", stats.Sympathies, "mutual", stats.Mutual, "events", stats.Events)
}
