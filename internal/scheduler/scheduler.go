package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/offerradar/internal/pipeline"
)

// Runner runs one pipeline cycle.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// Cleaner prunes diagnostics older than a retention window.
type Cleaner interface {
	Cleanup(olderThan time.Duration) error
}

// Scheduler owns the main loop: ticks on an interval and runs the pipeline.
// Runs never overlap; a slow run delays the next tick.
type Scheduler struct {
	runner    Runner
	interval  time.Duration
	cleaner   Cleaner
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that runs the pipeline at the given interval.
// cleaner may be nil.
func NewScheduler(runner Runner, interval time.Duration, cleaner Cleaner, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		interval:  interval,
		cleaner:   cleaner,
		retention: retention,
		logger:    logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then waits the configured
// interval after each cycle. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	// Run one immediate cycle.
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

// runOnce runs a single cycle. A failed run is logged and the loop carries on;
// the next cycle starts from whatever the store last saved.
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	sum, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("run failed", "run_id", sum.RunID, "error", err)
	}

	if s.cleaner != nil && s.retention > 0 {
		if err := s.cleaner.Cleanup(s.retention); err != nil {
			s.logger.Warn("ledger cleanup failed", "error", err)
		}
	}
}
