package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// RunnerDeps wires the stage use cases into a full batch run.
type RunnerDeps struct {
	Acquisition  *Acquisition
	Segmentation *Segmentation
	Comparison   *Comparison
	Notifier     ports.Notifier
	Ledger       ports.RunLedger
	Logger       *slog.Logger
}

// Runner executes the stages in order and publishes one report per stage.
type Runner struct {
	acquisition  *Acquisition
	segmentation *Segmentation
	comparison   *Comparison
	notifier     ports.Notifier
	ledger       ports.RunLedger
	logger       *slog.Logger
}

// NewRunner constructs the orchestrator.
func NewRunner(deps RunnerDeps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		acquisition:  deps.Acquisition,
		segmentation: deps.Segmentation,
		comparison:   deps.Comparison,
		notifier:     deps.Notifier,
		ledger:       deps.Ledger,
		logger:       logger.With("component", "runner"),
	}
}

// Fetch runs the acquisition stage.
func (r *Runner) Fetch(ctx context.Context, runID string, filers []string) (*domain.BatchReport, error) {
	if r.acquisition == nil {
		return nil, fmt.Errorf("acquisition is not configured")
	}
	report, err := r.acquisition.Run(ctx, runID, filers)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	r.publish(ctx, report)
	return report, nil
}

// Segment runs clean, split or both.
func (r *Runner) Segment(ctx context.Context, runID string, filers []string, stage Stage) (*domain.BatchReport, error) {
	report, err := r.segmentation.Run(ctx, runID, filers, stage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stage, err)
	}
	r.publish(ctx, report)
	return report, nil
}

// Compare runs the similarity stage.
func (r *Runner) Compare(ctx context.Context, runID string, filers []string) (*domain.BatchReport, error) {
	report, err := r.comparison.Run(ctx, runID, filers)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}
	r.publish(ctx, report)
	return report, nil
}

// RunAll executes fetch (when enabled), segmentation and comparison. Unit
// failures never stop the run; only stage-level errors do.
func (r *Runner) RunAll(ctx context.Context, runID string, filers []string, fetch bool) ([]*domain.BatchReport, error) {
	var reports []*domain.BatchReport

	if fetch {
		report, err := r.Fetch(ctx, runID, filers)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}

	report, err := r.Segment(ctx, runID, filers, StageSegment)
	if err != nil {
		return reports, err
	}
	reports = append(reports, report)

	report, err = r.Compare(ctx, runID, filers)
	if err != nil {
		return reports, err
	}
	reports = append(reports, report)

	return reports, nil
}

func (r *Runner) publish(ctx context.Context, report *domain.BatchReport) {
	r.logger.Info("stage report",
		"run_id", report.RunID,
		"stage", report.Stage,
		"succeeded", report.Succeeded,
		"failed", report.Failed())

	if r.ledger != nil {
		if err := r.ledger.RecordRun(ctx, report); err != nil {
			r.logger.Warn("record run failed", "run_id", report.RunID, "error", err)
		}
	}

	if r.notifier != nil {
		if err := r.notifier.PublishReport(ctx, report.Summary()); err != nil {
			r.logger.Warn("publish report failed", "run_id", report.RunID, "error", err)
		}
	}
}
