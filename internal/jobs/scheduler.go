package jobs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/oggyb/rndvu/internal/cache"
)

const lockTTL = 10 * time.Minute

// Schedule maps job names to cron specs.
var Schedule = map[string]string{
	DecrementSubscriptions: "0 0 * * *",
	PurgeExpiredSkips:      "0 * * * *",
}

// Scheduler fires the jobs on their cron specs. Each tick first takes a Redis
// lock so that only one worker instance runs it.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	locks  *cache.RedisCache
	owner  string
}

func NewScheduler(runner *Runner, locks *cache.RedisCache) *Scheduler {
	host, _ := os.Hostname()
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(runner.Location())),
		runner: runner,
		locks:  locks,
		owner:  fmt.Sprintf("%s-%s", host, uuid.NewString()),
	}
}

// Start registers every job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	for name, spec := range Schedule {
		if _, err := s.cron.AddFunc(spec, func() { s.Tick(ctx, name) }); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
	}
	s.cron.Start()
	s.runner.appCtx.Logger.Info("scheduler started", "tz", s.runner.Location().String())
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.runner.appCtx.Logger.Info("scheduler stopped")
}

// Tick runs one job under the distributed lock. It reports whether this
// instance ran it.
func (s *Scheduler) Tick(ctx context.Context, name string) bool {
	log := s.runner.appCtx.Logger.With("job", name)

	ok, err := s.locks.AcquireLock(ctx, name, s.owner, lockTTL)
	if err != nil {
		log.Error("job lock failed", "err", err)
		return false
	}
	if !ok {
		log.Debug("job held by another worker")
		return false
	}
	defer func() {
		if err := s.locks.ReleaseLock(context.WithoutCancel(ctx), name, s.owner); err != nil {
			log.Warn("job unlock failed", "err", err)
		}
	}()

	if _, err := s.runner.Run(ctx, name); err != nil {
		log.Error("job failed", "err", err)
	}
	return true
}
