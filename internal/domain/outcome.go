package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrRead marks a source file that is absent or unreadable.
	ErrRead = errors.New("read failure")
	// ErrSegmentation marks a filing whose section structure could not be recovered.
	ErrSegmentation = errors.New("segmentation failure")
	// ErrComparison marks a filing pair that lacks a required section file.
	ErrComparison = errors.New("comparison failure")
	// ErrDownload marks a filing that could not be fetched from the archive.
	ErrDownload = errors.New("download failure")
)

// OutcomeKind tags the result of one unit of work.
type OutcomeKind string

const (
	OutcomeSuccess             OutcomeKind = "success"
	OutcomeReadFailure         OutcomeKind = "read_failure"
	OutcomeSegmentationFailure OutcomeKind = "segmentation_failure"
	OutcomeComparisonFailure   OutcomeKind = "comparison_failure"
	OutcomeDownloadFailure     OutcomeKind = "download_failure"
	OutcomeInternalFailure     OutcomeKind = "internal_failure"
)

// Outcome is the tagged result of processing one filing or one comparison.
type Outcome struct {
	Kind     OutcomeKind
	FilerID  string
	FilingID string
	Err      error
}

// Succeeded reports whether the unit completed.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// ID renders the unit identifier used in reports.
func (o Outcome) ID() string {
	if o.FilingID == "" {
		return o.FilerID
	}
	return o.FilerID + "/" + o.FilingID
}

// Success builds a successful outcome.
func Success(filerID, filingID string) Outcome {
	return Outcome{Kind: OutcomeSuccess, FilerID: filerID, FilingID: filingID}
}

// Failure classifies err with the sentinel errors and builds a failed outcome.
func Failure(filerID, filingID string, err error) Outcome {
	return Outcome{Kind: Classify(err), FilerID: filerID, FilingID: filingID, Err: err}
}

// Classify maps an error to its outcome kind. Stage-level sentinels win over
// ErrRead, so a missing section wrapped as ErrComparison stays a comparison failure.
func Classify(err error) OutcomeKind {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrSegmentation):
		return OutcomeSegmentationFailure
	case errors.Is(err, ErrComparison):
		return OutcomeComparisonFailure
	case errors.Is(err, ErrDownload):
		return OutcomeDownloadFailure
	case errors.Is(err, ErrRead):
		return OutcomeReadFailure
	default:
		return OutcomeInternalFailure
	}
}

// BatchReport aggregates the outcomes of a batch run.
type BatchReport struct {
	RunID      string
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failures   map[OutcomeKind][]string
}

// NewBatchReport starts an empty report for one stage of a run.
func NewBatchReport(runID, stage string, startedAt time.Time) *BatchReport {
	return &BatchReport{
		RunID:     runID,
		Stage:     stage,
		StartedAt: startedAt,
		Failures:  map[OutcomeKind][]string{},
	}
}

// Add records one outcome.
func (r *BatchReport) Add(o Outcome) {
	if o.Succeeded() {
		r.Succeeded++
		return
	}
	r.Failures[o.Kind] = append(r.Failures[o.Kind], o.ID())
}

// Failed returns the total number of failed units.
func (r *BatchReport) Failed() int {
	total := 0
	for _, ids := range r.Failures {
		total += len(ids)
	}
	return total
}

// Summary renders the report as a short plain-text digest.
func (r *BatchReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s stage %s: %d succeeded, %d failed (%s)\n",
		r.RunID, r.Stage, r.Succeeded, r.Failed(), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	kinds := make([]string, 0, len(r.Failures))
	for kind := range r.Failures {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		ids := append([]string(nil), r.Failures[OutcomeKind(kind)]...)
		sort.Strings(ids)
		fmt.Fprintf(&b, "- %s (%d): %s\n", kind, len(ids), strings.Join(ids, ", "))
	}
	return b.String()
}
