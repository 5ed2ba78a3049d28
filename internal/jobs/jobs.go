// Package jobs holds the periodic maintenance of the ledger and its cron scheduler.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oggyb/rndvu/internal/app"
	"github.com/oggyb/rndvu/internal/repository"
)

// Job names, also used as lock names and admin trigger names.
const (
	DecrementSubscriptions = "decrement_subscriptions"
	PurgeExpiredSkips      = "purge_expired_skips"
)

// ErrUnknownJob is returned by Run for a name no job answers to.
var ErrUnknownJob = errors.New("unknown job")

// Result summarizes one job execution.
type Result struct {
	Job      string `json:"job"`
	Applied  bool   `json:"applied"`
	Affected int64  `json:"affected"`
	RunKey   string `json:"run_key,omitempty"`
}

// Runner executes the maintenance jobs against the database.
type Runner struct {
	appCtx        *app.AppContext
	jobs          *repository.JobRepository
	relationships *repository.RelationshipRepository
	loc           *time.Location
}

// NewRunner binds the jobs to the application's database and timezone.
func NewRunner(appCtx *app.AppContext) *Runner {
	return &Runner{
		appCtx:        appCtx,
		jobs:          repository.NewJobRepository(appCtx.DB),
		relationships: repository.NewRelationshipRepository(appCtx.DB),
		loc:           appCtx.Location(),
	}
}

// Location is the timezone the schedule and the daily run keys use.
func (r *Runner) Location() *time.Location { return r.loc }

// Names lists the jobs Run accepts.
func (r *Runner) Names() []string {
	names := []string{DecrementSubscriptions, PurgeExpiredSkips}
	sort.Strings(names)
	return names
}

// Run executes the named job once.
func (r *Runner) Run(ctx context.Context, name string) (*Result, error) {
	switch name {
	case DecrementSubscriptions:
		return r.DecrementSubscriptions(ctx)
	case PurgeExpiredSkips:
		return r.PurgeExpiredSkips(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
}

// DecrementSubscriptions burns one paid day for every subscriber.
//
// Behavior:
//   - The run key is the current civil date in the scheduler's timezone, so
//     the job applies at most once per day however often it fires.
//   - Subscriptions reaching zero days are switched off.
func (r *Runner) DecrementSubscriptions(ctx context.Context) (*Result, error) {
	runKey := r.appCtx.Now().In(r.loc).Format("2006-01-02")
	applied, expired, err := r.jobs.DecrementSubscriptions(ctx, runKey)
	if err != nil {
		return nil, fmt.Errorf("decrement subscriptions: %w", err)
	}
	r.appCtx.Logger.Info("job finished", "job", DecrementSubscriptions, "run_key", runKey, "applied", applied, "expired", expired)
	return &Result{Job: DecrementSubscriptions, Applied: applied, Affected: expired, RunKey: runKey}, nil
}

// PurgeExpiredSkips deletes skips older than the feed's retention window.
// The feed ignores them already; this only keeps the table small.
func (r *Runner) PurgeExpiredSkips(ctx context.Context) (*Result, error) {
	before := r.appCtx.Now().Add(-r.appCtx.Config.Feed.SkipRetention)
	n, err := r.relationships.PurgeExpiredSkips(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("purge expired skips: %w", err)
	}
	r.appCtx.Logger.Info("job finished", "job", PurgeExpiredSkips, "deleted", n)
	return &Result{Job: PurgeExpiredSkips, Applied: true, Affected: n}, nil
}
