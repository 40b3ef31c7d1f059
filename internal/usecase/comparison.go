package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/filingdate"
	"FilingDrift/internal/ports"
	"FilingDrift/internal/similarity"
)

// ComparisonDeps wires the adapters the comparison use case needs.
type ComparisonDeps struct {
	Store    ports.FilingStore
	Engine   *similarity.Engine
	Sink     ports.ResultSink
	Sections []string
	Workers  int
	Logger   *slog.Logger
}

// Comparison measures section drift between consecutive filings of a filer.
type Comparison struct {
	store    ports.FilingStore
	engine   *similarity.Engine
	sink     ports.ResultSink
	sections []string
	workers  int
	logger   *slog.Logger
}

// NewComparison constructs the use case; Sections defaults to Item 1A.
func NewComparison(deps ComparisonDeps) *Comparison {
	sections := deps.Sections
	if len(sections) == 0 {
		sections = []string{"1A"}
	}
	engine := deps.Engine
	if engine == nil {
		engine = similarity.NewEngine(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparison{
		store:    deps.Store,
		engine:   engine,
		sink:     deps.Sink,
		sections: sections,
		workers:  deps.Workers,
		logger:   logger.With("component", "comparison"),
	}
}

// DatedFilings resolves the date of every filing of a filer and orders them
// newest first. Filings without a readable date come back as failed outcomes.
func (c *Comparison) DatedFilings(ctx context.Context, filerID string) ([]domain.Filing, []domain.Outcome, error) {
	refs, err := c.store.ListFilings(ctx, filerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list filings of %s: %w", filerID, err)
	}

	var (
		filings  []domain.Filing
		failures []domain.Outcome
	)
	for _, ref := range refs {
		date, err := c.filingDate(ctx, ref)
		if err != nil {
			c.logger.Warn("filing date unavailable", "filing", ref.String(), "error", err)
			failures = append(failures, domain.Failure(ref.FilerID, ref.FilingID, err))
			continue
		}
		filings = append(filings, domain.Filing{FilingRef: ref, Date: date})
	}

	sort.SliceStable(filings, func(i, j int) bool {
		return filings[i].Date.After(filings[j].Date)
	})
	return filings, failures, nil
}

func (c *Comparison) filingDate(ctx context.Context, ref domain.FilingRef) (time.Time, error) {
	rc, err := c.store.OpenRaw(ctx, ref)
	if err != nil {
		return time.Time{}, err
	}
	defer rc.Close()
	return filingdate.ExtractFrom(rc, ref.FilingID)
}

// Plan pairs every filing with its predecessor for each configured section.
func (c *Comparison) Plan(filings []domain.Filing) []domain.ComparisonPair {
	var pairs []domain.ComparisonPair
	for i := 0; i+1 < len(filings); i++ {
		for _, section := range c.sections {
			pairs = append(pairs, domain.ComparisonPair{
				Later:   filings[i],
				Earlier: filings[i+1],
				Section: section,
			})
		}
	}
	return pairs
}

// ComparePair reads both section files and measures them. A missing file is
// a domain.ErrComparison.
func (c *Comparison) ComparePair(ctx context.Context, pair domain.ComparisonPair) (domain.SimilarityRecord, error) {
	later, err := c.store.ReadSection(ctx, pair.Later.FilingRef, pair.Section)
	if err != nil {
		return domain.SimilarityRecord{}, fmt.Errorf("%w: section %s of %s: %w", domain.ErrComparison, pair.Section, pair.Later, err)
	}
	earlier, err := c.store.ReadSection(ctx, pair.Earlier.FilingRef, pair.Section)
	if err != nil {
		return domain.SimilarityRecord{}, fmt.Errorf("%w: section %s of %s: %w", domain.ErrComparison, pair.Section, pair.Earlier, err)
	}

	rec := c.engine.Compare(later, earlier)
	rec.FilerID = pair.Later.FilerID
	rec.Section = pair.Section
	rec.DateA = pair.Later.Date.Format(domain.DateLayout)
	rec.DateB = pair.Earlier.Date.Format(domain.DateLayout)
	return rec, nil
}

// Run compares consecutive filings of the given filers (all filers on disk
// when none are given). A resettable sink is cleared first, so it holds only
// this run's records. Comparisons run in a bounded pool and a single
// goroutine owns the sink, so records are never interleaved.
func (c *Comparison) Run(ctx context.Context, runID string, filers []string) (*domain.BatchReport, error) {
	report := domain.NewBatchReport(runID, "similarity", time.Now())

	if len(filers) == 0 {
		var err error
		if filers, err = c.store.ListFilers(ctx); err != nil {
			return nil, fmt.Errorf("list filers: %w", err)
		}
	}

	var pairs []domain.ComparisonPair
	for _, filer := range filers {
		filings, failures, err := c.DatedFilings(ctx, filer)
		if err != nil {
			return nil, err
		}
		for _, f := range failures {
			report.Add(f)
		}
		pairs = append(pairs, c.Plan(filings)...)
	}

	if r, ok := c.sink.(ports.SinkResetter); ok {
		if err := r.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset result sink: %w", err)
		}
	}

	c.logger.Info("comparison started", "run_id", runID, "filers", len(filers), "pairs", len(pairs), "workers", c.workers)

	type indexed struct {
		idx int
		rec domain.SimilarityRecord
	}
	var (
		records   = make(chan indexed, max(c.workers, 1))
		writeErrs = map[int]error{}
		wg        sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range records {
			if c.sink == nil {
				continue
			}
			if err := c.sink.Write(ctx, runID, r.rec); err != nil {
				writeErrs[r.idx] = fmt.Errorf("write record: %w", err)
			}
		}
	}()

	indices := make([]int, len(pairs))
	for i := range indices {
		indices[i] = i
	}

	outcomes := runPool(ctx, c.workers, indices,
		func(i int) (string, string) { return pairs[i].Later.FilerID, pairID(pairs[i]) },
		func(ctx context.Context, i int) domain.Outcome {
			p := pairs[i]
			started := time.Now()
			rec, err := c.ComparePair(ctx, p)
			if err != nil {
				c.logger.Warn("comparison failed", "pair", pairID(p), "filer", p.Later.FilerID, "error", err)
				return domain.Failure(p.Later.FilerID, pairID(p), err)
			}
			c.logger.Debug("pair compared",
				"filer", rec.FilerID,
				"section", rec.Section,
				"date_a", rec.DateA,
				"date_b", rec.DateB,
				"len_a", rec.LenA,
				"len_b", rec.LenB,
				"elapsed", time.Since(started))
			records <- indexed{idx: i, rec: rec}
			return domain.Success(p.Later.FilerID, pairID(p))
		},
	)
	close(records)
	wg.Wait()

	for i, o := range outcomes {
		if err, ok := writeErrs[i]; ok {
			o = domain.Failure(o.FilerID, o.FilingID, err)
		}
		report.Add(o)
	}

	report.FinishedAt = time.Now()
	c.logger.Info("comparison finished", "run_id", runID, "succeeded", report.Succeeded, "failed", report.Failed())
	return report, nil
}

func pairID(p domain.ComparisonPair) string {
	return fmt.Sprintf("%s..%s#%s", p.Later.FilingID, p.Earlier.FilingID, p.Section)
}
