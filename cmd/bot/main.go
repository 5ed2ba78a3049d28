package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oggyb/rndvu/internal/bot"
	"github.com/oggyb/rndvu/internal/config"
	"github.com/oggyb/rndvu/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg.Log.Component = "bot"
	logger.InitFromConfig(cfg)

	b, err := bot.New(cfg, logger.L())
	if err != nil {
		logger.Error("failed to init bot", "err", err)
		os.Exit(1)
	}
	if err := b.Run(ctx); err != nil {
		logger.Error("bot stopped with error", "err", err)
		os.Exit(1)
	}
}
