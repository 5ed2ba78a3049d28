package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/bot"
	"github.com/oggyb/rndvu/internal/logger"
	"github.com/oggyb/rndvu/internal/repository"
	"github.com/oggyb/rndvu/internal/server"
	"github.com/oggyb/rndvu/internal/service/admin"
	"github.com/oggyb/rndvu/internal/service/billing"
	"github.com/oggyb/rndvu/internal/service/event"
	"github.com/oggyb/rndvu/internal/service/feed"
	"github.com/oggyb/rndvu/internal/service/player"
	"github.com/oggyb/rndvu/internal/service/relationship"
	"github.com/oggyb/rndvu/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx, cleanup, err := app.Bootstrap(ctx, "api")
	if err != nil {
		logger.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()
	log := appCtx.Logger
	cfg := appCtx.Config

	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			log.Error("failed to init storage", "err", err)
			return
		}
		appCtx.Storage = s3
	} else {
		log.Warn("STORAGE_BUCKET not set, photo URLs are raw object keys")
	}

	if cfg.Telegram.BotToken != "" {
		b, err := bot.New(cfg, log.With("component", "bot"))
		if err != nil {
			log.Error("failed to init bot", "err", err)
			return
		}
		appCtx.Notifier = b
	}

	if err := repository.NewBillingRepository(appCtx.DB).SeedProducts(ctx); err != nil {
		log.Error("failed to seed products", "err", err)
		return
	}

	health := server.NewHealth(appCtx)
	router := server.NewRouter(appCtx, health,
		player.NewRegistrar(appCtx),
		feed.NewRegistrar(appCtx),
		relationship.NewRegistrar(appCtx),
		event.NewRegistrar(appCtx),
		billing.NewRegistrar(appCtx),
		admin.NewRegistrar(appCtx),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartHTTPServer(ctx, net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port), router)
	})
	g.Go(func() error {
		return server.StartGRPCServer(ctx, cfg, health)
	})
	g.Go(func() error {
		health.Run(ctx, 15*time.Second)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		return
	}
	log.Info("server stopped")
}
