package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// CSVHeader is the column order of the similarity output file.
var CSVHeader = []string{"ticker", "date_a", "date_b", "distance", "similarity", "len_a", "len_b", "sentiment"}

// CSVSink appends similarity records to a CSV file.
type CSVSink struct {
	out    io.Writer
	w      *csv.Writer
	closer io.Closer
}

var (
	_ ports.ResultSink   = (*CSVSink)(nil)
	_ ports.SinkResetter = (*CSVSink)(nil)
)

// NewCSVFileSink truncates path and writes the header row.
func NewCSVFileSink(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	sink, err := newCSVSink(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return sink, nil
}

// NewCSVSink writes records to w after a header row.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	return newCSVSink(w, nil)
}

func newCSVSink(w io.Writer, closer io.Closer) (*CSVSink, error) {
	sink := &CSVSink{out: w, w: csv.NewWriter(w), closer: closer}
	if err := sink.writeRow(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return sink, nil
}

// Write appends one row and flushes it.
func (s *CSVSink) Write(ctx context.Context, runID string, rec domain.SimilarityRecord) error {
	return s.writeRow([]string{
		rec.FilerID,
		rec.DateA,
		rec.DateB,
		strconv.Itoa(rec.Distance),
		strconv.FormatFloat(rec.Similarity, 'f', -1, 64),
		strconv.Itoa(rec.LenA),
		strconv.Itoa(rec.LenB),
		strconv.FormatFloat(rec.Sentiment, 'f', -1, 64),
	})
}

func (s *CSVSink) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Reset discards every row written so far and starts over with the header.
// The underlying writer must be a file or support Reset (bytes.Buffer).
func (s *CSVSink) Reset(ctx context.Context) error {
	s.w.Flush()
	switch out := s.out.(type) {
	case *os.File:
		if err := out.Truncate(0); err != nil {
			return fmt.Errorf("truncate %s: %w", out.Name(), err)
		}
		if _, err := out.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind %s: %w", out.Name(), err)
		}
	case interface{ Reset() }:
		out.Reset()
	default:
		return fmt.Errorf("csv output %T cannot be reset", s.out)
	}

	s.w = csv.NewWriter(s.out)
	if err := s.writeRow(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	return nil
}

// Close flushes pending rows and closes the underlying file, if any.
func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

// MultiSink fans every record out to several sinks.
type MultiSink []ports.ResultSink

var (
	_ ports.ResultSink   = MultiSink(nil)
	_ ports.RunLedger    = MultiSink(nil)
	_ ports.SinkResetter = MultiSink(nil)
)

// Write forwards to every sink and joins their errors.
func (m MultiSink) Write(ctx context.Context, runID string, rec domain.SimilarityRecord) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Write(ctx, runID, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards to every sink that keeps a run ledger.
func (m MultiSink) RecordRun(ctx context.Context, report *domain.BatchReport) error {
	var errs []error
	for _, sink := range m {
		if ledger, ok := sink.(ports.RunLedger); ok {
			if err := ledger.RecordRun(ctx, report); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Reset forwards to every sink that keeps per-run output. Database sinks
// upsert by pair and need no reset.
func (m MultiSink) Reset(ctx context.Context) error {
	var errs []error
	for _, sink := range m {
		if r, ok := sink.(ports.SinkResetter); ok {
			if err := r.Reset(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m MultiSink) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
