package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// AcquisitionDeps wires the adapters the fetch stage needs.
type AcquisitionDeps struct {
	Source     ports.FilingSource
	Downloader ports.Downloader
	Store      ports.FilingStore
	Workers    int
	Logger     *slog.Logger
}

// Acquisition lists new filings upstream and stores their raw submissions.
type Acquisition struct {
	source     ports.FilingSource
	downloader ports.Downloader
	store      ports.FilingStore
	workers    int
	logger     *slog.Logger
}

// NewAcquisition constructs the fetch use case.
func NewAcquisition(deps AcquisitionDeps) *Acquisition {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquisition{
		source:     deps.Source,
		downloader: deps.Downloader,
		store:      deps.Store,
		workers:    deps.Workers,
		logger:     logger.With("component", "acquisition"),
	}
}

// Run downloads every listed filing that is not yet on disk.
func (a *Acquisition) Run(ctx context.Context, runID string, filers []string) (*domain.BatchReport, error) {
	report := domain.NewBatchReport(runID, "fetch", time.Now())
	if a.source == nil || a.downloader == nil {
		return nil, fmt.Errorf("acquisition is not configured")
	}
	if len(filers) == 0 {
		return nil, fmt.Errorf("no filers to fetch")
	}

	var pending []domain.RemoteFiling
	for _, filer := range filers {
		listed, err := a.source.ListFilings(ctx, filer)
		if err != nil {
			a.logger.Warn("listing failed", "filer", filer, "error", err)
			report.Add(domain.Failure(filer, "", fmt.Errorf("%w: %w", domain.ErrDownload, err)))
			continue
		}

		known, err := a.known(ctx, filer)
		if err != nil {
			return nil, err
		}

		fresh := 0
		for _, f := range listed {
			if known[f.AccessionNumber] {
				continue
			}
			pending = append(pending, f)
			fresh++
		}
		a.logger.Info("filer listed", "filer", filer, "listed", len(listed), "new", fresh)
	}

	outcomes := runPool(ctx, a.workers, pending,
		func(f domain.RemoteFiling) (string, string) { return f.FilerID, f.AccessionNumber },
		a.fetchOne,
	)
	for _, o := range outcomes {
		report.Add(o)
	}

	report.FinishedAt = time.Now()
	a.logger.Info("acquisition finished", "run_id", runID, "succeeded", report.Succeeded, "failed", report.Failed())
	return report, nil
}

func (a *Acquisition) known(ctx context.Context, filer string) (map[string]bool, error) {
	refs, err := a.store.ListFilings(ctx, filer)
	if err != nil {
		return nil, fmt.Errorf("list stored filings of %s: %w", filer, err)
	}

	known := make(map[string]bool, len(refs))
	for _, ref := range refs {
		known[ref.FilingID] = true
	}
	return known, nil
}

func (a *Acquisition) fetchOne(ctx context.Context, f domain.RemoteFiling) domain.Outcome {
	ref := domain.FilingRef{FilerID: f.FilerID, FilingID: f.AccessionNumber}

	body, err := a.downloader.Download(ctx, f)
	if err != nil {
		a.logger.Warn("download failed", "filing", ref.String(), "error", err)
		return domain.Failure(ref.FilerID, ref.FilingID, err)
	}
	defer body.Close()

	if err := a.store.WriteRaw(ctx, ref, body); err != nil {
		a.logger.Warn("store failed", "filing", ref.String(), "error", err)
		return domain.Failure(ref.FilerID, ref.FilingID, fmt.Errorf("%w: %w", domain.ErrDownload, err))
	}

	a.logger.Debug("filing stored", "filing", ref.String(), "filed_at", f.FiledAt.Format(domain.DateLayout))
	return domain.Success(ref.FilerID, ref.FilingID)
}
