// internal/history/history.go
package history

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"lamatest/internal/report"
)

// Store records finished batches into a local SQLite database so that
// pass rates and timings can be compared across runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	_, _ = db.Exec("PRAGMA journal_mode=WAL;")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id              TEXT PRIMARY KEY,
		started_at      DATETIME NOT NULL,
		reference_mode  TEXT,
		total           INTEGER NOT NULL,
		passed          INTEGER NOT NULL,
		failed          INTEGER NOT NULL,
		target_seconds  REAL NOT NULL,
		reference_seconds REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS results (
		run_id          TEXT NOT NULL REFERENCES runs(id),
		source          TEXT NOT NULL,
		status          TEXT NOT NULL,
		elapsed_seconds REAL NOT NULL,
		detail          TEXT
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordRun inserts the batch and all its per-case results in one
// transaction.
func (s *Store) RecordRun(rep report.BatchReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, reference_mode, total, passed, failed, target_seconds, reference_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.StartedAt, rep.ReferenceMode, rep.Total, rep.Passed, rep.Failed,
		rep.TargetSeconds, rep.ReferenceSeconds)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, c := range rep.Cases {
		_, err = tx.Exec(
			`INSERT INTO results (run_id, source, status, elapsed_seconds, detail)
			 VALUES (?, ?, ?, ?, ?)`,
			rep.RunID, c.Source, string(c.Status), c.TargetSeconds+c.ReferenceSeconds, c.Detail)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert result for %s: %w", c.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// LastRuns returns up to n most recent run summaries, newest first.
func (s *Store) LastRuns(n int) ([]report.BatchReport, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, reference_mode, total, passed, failed, target_seconds, reference_seconds
		 FROM runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []report.BatchReport
	for rows.Next() {
		var r report.BatchReport
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.ReferenceMode, &r.Total, &r.Passed, &r.Failed,
			&r.TargetSeconds, &r.ReferenceSeconds); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
