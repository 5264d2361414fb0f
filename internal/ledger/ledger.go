// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records batch runs and their per-document outcomes in a
// SQLite database so earlier runs can be listed and inspected.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docharvest/pkg/types"
)

const (
	defaultMaxResults = 20

	// timeLayout has fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

// Store is the run ledger.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Run summarizes one recorded batch.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Terms      []string
	Total      int
	Done       int
	Failed     int
}

// Record is one stored document outcome.
type Record struct {
	RunID        string
	Position     int
	SourceURL    string
	DestPath     string
	State        types.DocumentState
	Kind         types.ErrorKind
	Reason       string
	Repaired     bool
	Highlights   int
	ItemFailures int
	OutputPath   string
	Trace        []types.DocumentState
	StartedAt    time.Time
}

// Open opens or creates the ledger at cfg.Path, creating parent
// directories and the schema as needed.
func Open(cfg types.LedgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			terms TEXT NOT NULL,
			total INTEGER NOT NULL,
			done INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source_url TEXT NOT NULL,
			dest_path TEXT NOT NULL,
			state TEXT NOT NULL,
			kind TEXT,
			reason TEXT,
			repaired INTEGER NOT NULL,
			highlights INTEGER NOT NULL,
			item_failures INTEGER NOT NULL,
			output_path TEXT,
			trace TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_source_url ON outcomes(source_url)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores a finished batch and returns its new run ID. Outcomes
// are stored in the given order.
func (s *Store) RecordRun(ctx context.Context, started, finished time.Time, spec types.HighlightSpec, outcomes []types.Outcome) (string, error) {
	id := uuid.NewString()
	terms, err := json.Marshal(spec.Terms)
	if err != nil {
		return "", fmt.Errorf("encoding terms: %w", err)
	}

	done := 0
	for _, o := range outcomes {
		if o.Succeeded() {
			done++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, terms, total, done, failed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, formatTime(started), formatTime(finished), string(terms), len(outcomes), done, len(outcomes)-done,
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO outcomes
		(run_id, position, source_url, dest_path, state, kind, reason, repaired, highlights, item_failures, output_path, trace)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing outcome insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range outcomes {
		var highlights, itemFailures int
		if o.Report != nil {
			highlights = o.Report.Highlights
			itemFailures = len(o.Report.ItemFailures)
		}
		if _, err := stmt.ExecContext(ctx,
			id, i, o.Ref.SourceURL, o.Ref.DestPath, string(o.State), string(o.Kind), o.Reason,
			o.Repaired, highlights, itemFailures, o.OutputPath(), joinTrace(o.Trace),
		); err != nil {
			return "", fmt.Errorf("inserting outcome %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Runs lists recorded runs, newest first. limit <= 0 uses the configured
// maximum.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, terms, total, done, failed
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			terms             string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &terms, &r.Total, &r.Done, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		if err := json.Unmarshal([]byte(terms), &r.Terms); err != nil {
			return nil, fmt.Errorf("decoding terms of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the records of one run in input order. runID may be a
// unique prefix of the full ID.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Record, error) {
	id, err := s.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, `WHERE o.run_id = ? ORDER BY o.position`, id)
}

// URLHistory returns every recorded outcome for sourceURL, newest run
// first, bounded by the configured maximum.
func (s *Store) URLHistory(ctx context.Context, sourceURL string) ([]Record, error) {
	return s.queryRecords(ctx, `WHERE o.source_url = ? ORDER BY r.started_at DESC LIMIT ?`, sourceURL, s.maxResults)
}

func (s *Store) resolveRunID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return "", fmt.Errorf("resolving run %q: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scanning run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run prefix %q is ambiguous", prefix)
	}
}

func (s *Store) queryRecords(ctx context.Context, where string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT o.run_id, o.position, o.source_url, o.dest_path, o.state,
		o.kind, o.reason, o.repaired, o.highlights, o.item_failures, o.output_path, o.trace, r.started_at
		FROM outcomes o JOIN runs r ON r.id = o.run_id `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec                        Record
			state, kind, trace, starts string
			reason, outputPath         sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.Position, &rec.SourceURL, &rec.DestPath, &state,
			&kind, &reason, &rec.Repaired, &rec.Highlights, &rec.ItemFailures, &outputPath, &trace, &starts,
		); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		rec.State = types.DocumentState(state)
		rec.Kind = types.ErrorKind(kind)
		rec.Reason = reason.String
		rec.OutputPath = outputPath.String
		rec.Trace = splitTrace(trace)
		rec.StartedAt = parseTime(starts)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func joinTrace(trace []types.DocumentState) string {
	parts := make([]string, len(trace))
	for i, st := range trace {
		parts[i] = string(st)
	}
	return strings.Join(parts, ",")
}

func splitTrace(s string) []types.DocumentState {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	trace := make([]types.DocumentState, len(parts))
	for i, p := range parts {
		trace[i] = types.DocumentState(p)
	}
	return trace
}
