package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // CGO-free SQLite

	"github.com/danisans16/scripts-fomo/internal/event"
)

// SQLiteSink keeps every run and its records in a sqlite database.
type SQLiteSink struct {
	db *sql.DB
}

// RunSummary describes a stored run.
type RunSummary struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Events      int       `json:"events"`
	Failed      int       `json:"failed"`
	EmptyVenues []string  `json:"empty_venues"`
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLiteSink, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSink{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS runs(
	  id           TEXT    PRIMARY KEY,
	  started_at   INTEGER NOT NULL,
	  finished_at  INTEGER NOT NULL,
	  events       INTEGER NOT NULL,
	  failed       INTEGER NOT NULL,
	  empty_venues TEXT    NOT NULL CHECK (json_valid(empty_venues))
	);
	CREATE TABLE IF NOT EXISTS events(
	  id              INTEGER PRIMARY KEY,
	  run_id          TEXT    NOT NULL REFERENCES runs(id),
	  position        INTEGER NOT NULL,
	  event_id        TEXT    NOT NULL,
	  venue           TEXT    NOT NULL,
	  event_name      TEXT,
	  url             TEXT    NOT NULL,
	  current_release TEXT,
	  releases        INTEGER NOT NULL,
	  record_json     TEXT    NOT NULL CHECK (json_valid(record_json))
	);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_url ON events(url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Save stores the run and its records in one transaction. A run without an
// ID is assigned a random one.
func (s *SQLiteSink) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	empty := run.EmptyVenues
	if empty == nil {
		empty = []string{}
	}
	emptyJSON, err := json.Marshal(empty)
	if err != nil {
		return fmt.Errorf("failed to marshal empty venues: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, started_at, finished_at, events, failed, empty_venues) VALUES(?,?,?,?,?,json(?))`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), len(run.Records), run.Failed, string(emptyJSON),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	statement, err := tx.PrepareContext(ctx,
		`INSERT INTO events(run_id, position, event_id, venue, event_name, url, current_release, releases, record_json) VALUES(?,?,?,?,?,?,?,?,json(?))`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer statement.Close()

	for i, r := range run.Records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", r.URL, err)
		}

		var current sql.NullString
		if r.CurrentRelease != "" {
			current = sql.NullString{String: r.CurrentRelease, Valid: true}
		}

		if _, err := statement.ExecContext(ctx,
			run.ID, i, r.ID(), r.Venue, r.EventName, r.URL, current, len(r.Releases), string(data),
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *SQLiteSink) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, events, failed, empty_venues FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			rs                RunSummary
			started, finished int64
			emptyJSON         string
		)
		if err := rows.Scan(&rs.ID, &started, &finished, &rs.Events, &rs.Failed, &emptyJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rs.StartedAt = time.UnixMilli(started).UTC()
		rs.FinishedAt = time.UnixMilli(finished).UTC()
		if err := json.Unmarshal([]byte(emptyJSON), &rs.EmptyVenues); err != nil {
			return nil, fmt.Errorf("failed to decode empty venues: %w", err)
		}
		runs = append(runs, rs)
	}
	return runs, rows.Err()
}

// Records returns the records stored for a run, in their original order.
func (s *SQLiteSink) Records(ctx context.Context, runID string) ([]*event.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_json FROM events WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*event.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r := &event.Record{}
		if err := json.Unmarshal([]byte(data), r); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Latest returns the records of the most recent run, or nil when the
// database holds no runs.
func (s *SQLiteSink) Latest(ctx context.Context) ([]*event.Record, error) {
	runs, err := s.Runs(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return s.Records(ctx, runs[0].ID)
}
