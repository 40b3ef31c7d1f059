package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// PostgresRepository persists similarity records into Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var (
	_ ports.ResultSink = (*PostgresRepository)(nil)
	_ ports.RunLedger  = (*PostgresRepository)(nil)
)

// NewPostgresRepository connects to dsn and ensures the schema exists.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	for _, ddl := range []string{recordsSchema, runsSchema} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
	}

	return &PostgresRepository{pool: pool}, nil
}

// Write upserts one record.
func (r *PostgresRepository) Write(ctx context.Context, runID string, rec domain.SimilarityRecord) error {
	if r.pool == nil {
		return nil
	}

	query, args, err := upsertRecord(sq.Dollar, runID, rec)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save record %s %s/%s: %w", rec.FilerID, rec.DateA, rec.DateB, err)
	}
	return nil
}

// RecordRun stores a batch report.
func (r *PostgresRepository) RecordRun(ctx context.Context, report *domain.BatchReport) error {
	if r.pool == nil {
		return nil
	}

	query, args, err := upsertRun(sq.Dollar, report)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save run %s: %w", report.RunID, err)
	}
	return nil
}

// Records lists stored records, optionally filtered by filer and section.
func (r *PostgresRepository) Records(ctx context.Context, filerID, section string) ([]domain.SimilarityRecord, error) {
	if r.pool == nil {
		return nil, nil
	}

	query, args, err := selectRecords(sq.Dollar, filerID, section)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
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

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}
