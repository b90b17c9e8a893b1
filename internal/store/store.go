// Package store keeps a history of processed jobs in a local
// SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/naki0227/nue/internal/job"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	document    TEXT NOT NULL,
	output      TEXT,
	status      TEXT NOT NULL,
	error       TEXT,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_started ON jobs(started_at);
`

// Store wraps the job-history database.
type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open opens (and creates if needed) the database at dbPath.
func Open(dbPath string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		conn:   conn,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record persists one job outcome. Implements job.Recorder.
func (s *Store) Record(rec job.Record) error {
	_, err := s.conn.Exec(
		`INSERT OR REPLACE INTO jobs (id, source, document, output, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Document, rec.Output, rec.Status, rec.Error, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record job %s: %w", rec.ID, err)
	}
	return nil
}

// List returns the most recent job records, newest first.
func (s *Store) List(limit int) ([]job.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.Query(
		`SELECT id, source, document, output, status, error, started_at, finished_at
		 FROM jobs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var recs []job.Record
	for rows.Next() {
		var rec job.Record
		var output, errMsg sql.NullString
		var started, finished time.Time
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Document, &output, &rec.Status, &errMsg, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		rec.Output = output.String
		rec.Error = errMsg.String
		rec.StartedAt = started
		rec.FinishedAt = finished
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
