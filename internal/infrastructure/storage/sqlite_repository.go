package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// SQLiteRepository keeps similarity records in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ports.ResultSink = (*SQLiteRepository)(nil)
	_ ports.RunLedger  = (*SQLiteRepository)(nil)
)

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	for _, ddl := range []string{recordsSchema, runsSchema} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// Write upserts one record.
func (r *SQLiteRepository) Write(ctx context.Context, runID string, rec domain.SimilarityRecord) error {
	query, args, err := upsertRecord(sq.Question, runID, rec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save record %s %s/%s: %w", rec.FilerID, rec.DateA, rec.DateB, err)
	}
	return nil
}

// RecordRun stores a batch report.
func (r *SQLiteRepository) RecordRun(ctx context.Context, report *domain.BatchReport) error {
	query, args, err := upsertRun(sq.Question, report)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save run %s: %w", report.RunID, err)
	}
	return nil
}

// Records lists stored records, optionally filtered by filer and section.
func (r *SQLiteRepository) Records(ctx context.Context, filerID, section string) ([]domain.SimilarityRecord, error) {
	query, args, err := selectRecords(sq.Question, filerID, section)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []domain.SimilarityRecord
	for rows.Next() {
		var rec domain.SimilarityRecord
		if err := rows.Scan(&rec.FilerID, &rec.Section, &rec.DateA, &rec.DateB,
			&rec.Distance, &rec.Similarity, &rec.LenA, &rec.LenB, &rec.Sentiment); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
