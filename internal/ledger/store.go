package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. A mismatched
// database must be deleted; the ledger is advisory, not authoritative.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// release.
var ErrSchemaMismatch = errors.New("ledger schema version mismatch")

// Store records pipeline runs and per-slide progress in SQLite. The asset
// files on disk remain the source of truth for what needs rebuilding; the
// ledger exists for the status command and for post-mortems.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the ledger database at dbPath, creating it and its
// schema when absent.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginRun inserts a new pending run for the deck and returns it.
func (s *Store) BeginRun(ctx context.Context, deckPath string) (Run, error) {
	now := time.Now().UTC()
	run := Run{
		ID:        uuid.NewString(),
		DeckPath:  deckPath,
		Status:    StatusPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, deck_path, status, detail, started_at, updated_at)
         VALUES (?, ?, ?, '', ?, ?)`,
		run.ID, run.DeckPath, run.Status,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// UpdateRun moves a run to a new status with optional detail text.
func (s *Store) UpdateRun(ctx context.Context, runID string, status Status, detail string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, detail = ?, updated_at = ? WHERE id = ?",
		status, detail, time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update run: no run with id %s", runID)
	}
	return nil
}

// RecordSlide upserts the state of one slide at one stage within a run.
func (s *Store) RecordSlide(ctx context.Context, runID string, slide int, stage string, status Status, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slide_records (run_id, slide, stage, status, detail, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, slide, stage) DO UPDATE SET
             status = excluded.status,
             detail = excluded.detail,
             updated_at = excluded.updated_at`,
		runID, slide, stage, status, detail,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record slide: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started run, or nil when the ledger
// is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, deck_path, status, detail, started_at, updated_at
         FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Runs returns up to limit runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deck_path, status, detail, started_at, updated_at
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SlideRecords returns the per-slide state for a run ordered by slide then
// stage.
func (s *Store) SlideRecords(ctx context.Context, runID string) ([]SlideRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, slide, stage, status, detail, updated_at
         FROM slide_records WHERE run_id = ? ORDER BY slide, stage`, runID)
	if err != nil {
		return nil, fmt.Errorf("query slide records: %w", err)
	}
	defer rows.Close()

	var records []SlideRecord
	for rows.Next() {
		var (
			record    SlideRecord
			updatedAt string
		)
		if err := rows.Scan(&record.RunID, &record.Slide, &record.Stage, &record.Status, &record.Detail, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan slide record: %w", err)
		}
		record.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                  Run
		startedAt, updatedAt string
	)
	if err := row.Scan(&run.ID, &run.DeckPath, &run.Status, &run.Detail, &startedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	run.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return run, nil
}
