package usecase

import (
	"context"
	"log/slog"
	"time"

	"FilingDrift/internal/ports"
)

// Scheduler wires the interval driver with the full batch run.
type Scheduler struct {
	driver   ports.Scheduler
	runner   *Runner
	filers   []string
	fetch    bool
	newRunID func() string
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. newRunID is
// called once per trigger.
func NewScheduler(driver ports.Scheduler, runner *Runner, filers []string, fetch bool, newRunID func() string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		driver:   driver,
		runner:   runner,
		filers:   filers,
		fetch:    fetch,
		newRunID: newRunID,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start registers the run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		runID := s.newRunID()
		s.logger.Info("scheduled run", "run_id", runID, "trigger", trigger)
		if _, err := s.runner.RunAll(ctx, runID, s.filers, s.fetch); err != nil {
			s.logger.Error("scheduled run failed", "run_id", runID, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
