package scanner

import (
	"context"
	"fmt"
	"time"

	"FilingDrift/internal/domain"
)

// Request carries all parameters required to list one filer's filings.
type Request struct {
	FilerID string
	// CIK is the archive's filer key; scanners fall back to FilerID when empty.
	CIK     string
	Form    string
	After   time.Time
	Options map[string]string
}

// Key returns the identifier sent to the archive.
func (r Request) Key() string {
	if r.CIK != "" {
		return r.CIK
	}
	return r.FilerID
}

// Scanner captures a single listing strategy (EDGAR browse pages, full-text
// search, a local index...).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.RemoteFiling, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
