package ports

import (
	"context"
	"io"
	"time"

	"FilingDrift/internal/domain"
)

// FilingSource lists filings published by the upstream archive for a filer.
type FilingSource interface {
	ListFilings(ctx context.Context, filerID string) ([]domain.RemoteFiling, error)
}

// Downloader fetches the full submission text of a remote filing.
type Downloader interface {
	Download(ctx context.Context, filing domain.RemoteFiling) (io.ReadCloser, error)
}

// FilingStore is the on-disk filing tree: <root>/<filer>/<form>/<filing>/.
type FilingStore interface {
	ListFilers(ctx context.Context) ([]string, error)
	ListFilings(ctx context.Context, filerID string) ([]domain.FilingRef, error)
	ReadRaw(ctx context.Context, ref domain.FilingRef) (string, error)
	OpenRaw(ctx context.Context, ref domain.FilingRef) (io.ReadCloser, error)
	WriteRaw(ctx context.Context, ref domain.FilingRef, r io.Reader) error
	ReadClean(ctx context.Context, ref domain.FilingRef) (string, error)
	WriteClean(ctx context.Context, ref domain.FilingRef, text string) error
	WriteSections(ctx context.Context, ref domain.FilingRef, sections []domain.Section) error
	ClearSections(ctx context.Context, ref domain.FilingRef) error
	ReadSection(ctx context.Context, ref domain.FilingRef, label string) (string, error)
}

// ResultSink persists similarity records; implementations need not be goroutine-safe.
type ResultSink interface {
	Write(ctx context.Context, runID string, rec domain.SimilarityRecord) error
	Close() error
}

// SinkResetter is implemented by sinks whose output holds exactly one run, so
// a repeated run replaces rows instead of appending duplicates.
type SinkResetter interface {
	Reset(ctx context.Context) error
}

// RunLedger records batch reports next to the results they produced.
type RunLedger interface {
	RecordRun(ctx context.Context, report *domain.BatchReport) error
}

// RecordReader lists stored similarity records.
type RecordReader interface {
	Records(ctx context.Context, filerID, section string) ([]domain.SimilarityRecord, error)
}

// SentimentScorer assigns a polarity score to a single word.
type SentimentScorer interface {
	Score(word string) float64
}

// Notifier publishes batch reports to an outbound channel.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// Scheduler controls when batch runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
