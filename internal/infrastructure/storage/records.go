package storage

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"FilingDrift/internal/domain"
)

const (
	recordsTable = "similarity_records"
	runsTable    = "batch_runs"
)

const recordsSchema = `CREATE TABLE IF NOT EXISTS similarity_records (
    run_id     TEXT NOT NULL,
    ticker     TEXT NOT NULL,
    section    TEXT NOT NULL,
    date_a     TEXT NOT NULL,
    date_b     TEXT NOT NULL,
    distance   INTEGER NOT NULL,
    similarity DOUBLE PRECISION NOT NULL,
    len_a      INTEGER NOT NULL,
    len_b      INTEGER NOT NULL,
    sentiment  DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (ticker, section, date_a, date_b)
)`

const runsSchema = `CREATE TABLE IF NOT EXISTS batch_runs (
    run_id      TEXT NOT NULL,
    stage       TEXT NOT NULL,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    succeeded   INTEGER NOT NULL,
    failed      INTEGER NOT NULL,
    summary     TEXT NOT NULL,
    PRIMARY KEY (run_id, stage)
)`

// upsertRecord builds the insert for one record. A rerun over the same filing
// pair replaces the earlier measurement.
func upsertRecord(ph sq.PlaceholderFormat, runID string, rec domain.SimilarityRecord) (string, []interface{}, error) {
	query, args, err := sq.Insert(recordsTable).
		Columns("run_id", "ticker", "section", "date_a", "date_b", "distance", "similarity", "len_a", "len_b", "sentiment").
		Values(runID, rec.FilerID, rec.Section, rec.DateA, rec.DateB, rec.Distance, rec.Similarity, rec.LenA, rec.LenB, rec.Sentiment).
		Suffix(`ON CONFLICT (ticker, section, date_a, date_b) DO UPDATE SET
            run_id = EXCLUDED.run_id,
            distance = EXCLUDED.distance,
            similarity = EXCLUDED.similarity,
            len_a = EXCLUDED.len_a,
            len_b = EXCLUDED.len_b,
            sentiment = EXCLUDED.sentiment`).
		PlaceholderFormat(ph).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build record upsert: %w", err)
	}
	return query, args, nil
}

func upsertRun(ph sq.PlaceholderFormat, report *domain.BatchReport) (string, []interface{}, error) {
	query, args, err := sq.Insert(runsTable).
		Columns("run_id", "stage", "started_at", "finished_at", "succeeded", "failed", "summary").
		Values(report.RunID, report.Stage,
			report.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			report.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			report.Succeeded, report.Failed(), report.Summary()).
		Suffix(`ON CONFLICT (run_id, stage) DO UPDATE SET
            finished_at = EXCLUDED.finished_at,
            succeeded = EXCLUDED.succeeded,
            failed = EXCLUDED.failed,
            summary = EXCLUDED.summary`).
		PlaceholderFormat(ph).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build run upsert: %w", err)
	}
	return query, args, nil
}

func selectRecords(ph sq.PlaceholderFormat, filerID, section string) (string, []interface{}, error) {
	builder := sq.Select("ticker", "section", "date_a", "date_b", "distance", "similarity", "len_a", "len_b", "sentiment").
		From(recordsTable).
		OrderBy("ticker", "date_a DESC").
		PlaceholderFormat(ph)
	if filerID != "" {
		builder = builder.Where(sq.Eq{"ticker": filerID})
	}
	if section != "" {
		builder = builder.Where(sq.Eq{"section": section})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build record select: %w", err)
	}
	return query, args, nil
}
