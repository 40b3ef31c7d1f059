package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FilingDrift/internal/config"
	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
	"FilingDrift/internal/scanner"
)

// StrategySource implements FilingSource via a registered scanner strategy.
type StrategySource struct {
	registry *scanner.Registry
	edgar    config.EDGARConfig
	filers   map[string]config.FilerConfig
	logger   *slog.Logger
}

var _ ports.FilingSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined filers.
func NewStrategySource(reg *scanner.Registry, edgar config.EDGARConfig, filers []config.FilerConfig, log *slog.Logger) *StrategySource {
	byID := make(map[string]config.FilerConfig, len(filers))
	for _, f := range filers {
		byID[f.ID] = f
	}
	return &StrategySource{
		registry: reg,
		edgar:    edgar,
		filers:   byID,
		logger:   log,
	}
}

// ListFilings resolves the configured scanner and lists one filer's filings.
// Filers missing from configuration are looked up by their id.
func (s *StrategySource) ListFilings(ctx context.Context, filerID string) ([]domain.RemoteFiling, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.edgar.ScannerName())
	if err != nil {
		return nil, fmt.Errorf("filer %s: %w", filerID, err)
	}

	filer, ok := s.filers[filerID]
	if !ok {
		filer = config.FilerConfig{ID: filerID}
	}

	req := scanner.Request{
		FilerID: filerID,
		CIK:     filer.CIK,
		Form:    s.edgar.Form,
		After:   s.edgar.StartTime(),
	}

	s.debug("list filings", "filer", filerID, "scanner", strategy.Name(), "form", req.Form, "after", formatDay(req.After))
	results, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scan filer %s: %w", filerID, err)
	}

	s.debug("filer listing done", "filer", filerID, "count", len(results))
	return results, nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
