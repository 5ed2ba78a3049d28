package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/jobs"
	"github.com/oggyb/rndvu/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx, cleanup, err := app.Bootstrap(ctx, "worker")
	if err != nil {
		logger.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	scheduler := jobs.NewScheduler(jobs.NewRunner(appCtx), appCtx.RedisCache)
	if err := scheduler.Start(ctx); err != nil {
		appCtx.Logger.Error("failed to start scheduler", "err", err)
		return
	}

	<-ctx.Done()
	scheduler.Stop()
}
