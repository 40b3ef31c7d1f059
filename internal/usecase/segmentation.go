package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/normalize"
	"FilingDrift/internal/ports"
	"FilingDrift/internal/segment"
)

// Stage selects which part of the per-filing work runs.
type Stage string

const (
	// StageClean normalizes raw submissions.
	StageClean Stage = "clean"
	// StageSplit segments existing clean text.
	StageSplit Stage = "split"
	// StageSegment runs clean then split.
	StageSegment Stage = "segment"
)

// SegmentationDeps wires the adapters the segmentation use case needs.
type SegmentationDeps struct {
	Store     ports.FilingStore
	Segmenter *segment.Segmenter
	Workers   int
	Logger    *slog.Logger
}

// Segmentation cleans filings and writes their section files.
type Segmentation struct {
	store     ports.FilingStore
	segmenter *segment.Segmenter
	workers   int
	logger    *slog.Logger
}

// NewSegmentation constructs the use case.
func NewSegmentation(deps SegmentationDeps) *Segmentation {
	seg := deps.Segmenter
	if seg == nil {
		seg = segment.NewSegmenter(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmentation{
		store:     deps.Store,
		segmenter: seg,
		workers:   deps.Workers,
		logger:    logger.With("component", "segmentation"),
	}
}

// Clean normalizes one raw submission and stores the result.
func (s *Segmentation) Clean(ctx context.Context, ref domain.FilingRef) (string, error) {
	raw, err := s.store.ReadRaw(ctx, ref)
	if err != nil {
		return "", err
	}

	text := normalize.Normalize(raw)
	if err := s.store.WriteClean(ctx, ref, text); err != nil {
		return "", fmt.Errorf("write clean text: %w", err)
	}
	return text, nil
}

// Split segments clean text and writes one file per section. Nothing is
// written when segmentation fails.
func (s *Segmentation) Split(ctx context.Context, ref domain.FilingRef, text string) ([]domain.Section, error) {
	res, err := s.segmenter.Segment(text)
	if err != nil {
		return nil, err
	}

	if err := s.store.WriteSections(ctx, ref, res.Sections); err != nil {
		return nil, fmt.Errorf("write sections: %w", err)
	}

	s.logger.Debug("filing segmented",
		"filing", ref.String(),
		"headings", len(res.Headings),
		"rounds", res.Rounds,
		"sections", len(res.Sections))
	return res.Sections, nil
}

// ProcessFiling runs the requested stage for one filing. Section files from
// an earlier run are removed before splitting, so a failed filing has none.
func (s *Segmentation) ProcessFiling(ctx context.Context, ref domain.FilingRef, stage Stage) domain.Outcome {
	var (
		text string
		err  error
	)

	if stage != StageClean {
		if err := s.store.ClearSections(ctx, ref); err != nil {
			s.logger.Warn("clear sections failed", "filing", ref.String(), "error", err)
			return domain.Failure(ref.FilerID, ref.FilingID, fmt.Errorf("clear sections: %w", err))
		}
	}

	switch stage {
	case StageClean, StageSegment:
		text, err = s.Clean(ctx, ref)
	case StageSplit:
		text, err = s.store.ReadClean(ctx, ref)
	default:
		err = fmt.Errorf("unknown stage %q", stage)
	}
	if err == nil && stage != StageClean {
		_, err = s.Split(ctx, ref, text)
	}

	if err != nil {
		s.logger.Warn("filing failed", "filing", ref.String(), "stage", stage, "error", err)
		return domain.Failure(ref.FilerID, ref.FilingID, err)
	}
	return domain.Success(ref.FilerID, ref.FilingID)
}

// Run processes every filing of the given filers (all filers on disk when
// none are given) in a bounded worker pool.
func (s *Segmentation) Run(ctx context.Context, runID string, filers []string, stage Stage) (*domain.BatchReport, error) {
	report := domain.NewBatchReport(runID, string(stage), time.Now())

	refs, err := collectFilings(ctx, s.store, filers)
	if err != nil {
		return nil, err
	}

	s.logger.Info("segmentation started", "run_id", runID, "stage", stage, "filings", len(refs), "workers", s.workers)

	outcomes := runPool(ctx, s.workers, refs,
		func(ref domain.FilingRef) (string, string) { return ref.FilerID, ref.FilingID },
		func(ctx context.Context, ref domain.FilingRef) domain.Outcome {
			return s.ProcessFiling(ctx, ref, stage)
		},
	)
	for _, o := range outcomes {
		report.Add(o)
	}

	report.FinishedAt = time.Now()
	s.logger.Info("segmentation finished", "run_id", runID, "stage", stage, "succeeded", report.Succeeded, "failed", report.Failed())
	return report, nil
}

// collectFilings lists the filings of filers, or of every filer in the store.
func collectFilings(ctx context.Context, store ports.FilingStore, filers []string) ([]domain.FilingRef, error) {
	if len(filers) == 0 {
		var err error
		if filers, err = store.ListFilers(ctx); err != nil {
			return nil, fmt.Errorf("list filers: %w", err)
		}
	}

	var refs []domain.FilingRef
	for _, filer := range filers {
		filings, err := store.ListFilings(ctx, filer)
		if err != nil {
			return nil, fmt.Errorf("list filings of %s: %w", filer, err)
		}
		refs = append(refs, filings...)
	}
	return refs, nil
}
