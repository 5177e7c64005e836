// Package journal records run history in SQLite: one row per pipeline run
// plus per-scene outcomes, backing the report command and the status API.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes; mismatched databases must
// be deleted and recreated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// FileName is the database file inside the log directory.
const FileName = "journal.db"

// Scene outcome statuses.
const (
	SceneCompleted = "completed"
	SceneFailed    = "failed"
)

// Run is one recorded pipeline run.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	MergeKind      string
	SceneCount     int
	PendingCount   int
	CompletedCount int
	FailedCount    int
	OutputPath     string
	Error          string
}

// SceneOutcome is one scene's result within a run.
type SceneOutcome struct {
	Scene  int
	Status string
	Detail string
}

// Store is the SQLite-backed journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the journal database under dir, creating it on first use.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
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

// Path returns the database file path.
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
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// StartRun records the beginning of a run.
func (s *Store) StartRun(ctx context.Context, id, mergeKind string, sceneCount, pendingCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, merge_kind, scene_count, pending_count)
         VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), mergeKind, sceneCount, pendingCount)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the run's end state. runErr may be nil.
func (s *Store) FinishRun(ctx context.Context, id string, completed, failed int, outputPath string, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, completed_count = ?, failed_count = ?,
            output_path = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), completed, failed, outputPath, errText, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordScene stores one scene's outcome for a run.
func (s *Store) RecordScene(ctx context.Context, runID string, scene int, status, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scene_outcomes (run_id, scene, status, detail) VALUES (?, ?, ?, ?)
         ON CONFLICT(run_id, scene) DO UPDATE SET status = excluded.status, detail = excluded.detail`,
		runID, scene, status, detail)
	if err != nil {
		return fmt.Errorf("record scene outcome: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), merge_kind, scene_count,
            pending_count, completed_count, failed_count,
            COALESCE(output_path, ''), COALESCE(error, '')
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.MergeKind, &run.SceneCount,
			&run.PendingCount, &run.CompletedCount, &run.FailedCount,
			&run.OutputPath, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SceneOutcomes returns the per-scene results of a run in scene order.
func (s *Store) SceneOutcomes(ctx context.Context, runID string) ([]SceneOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scene, status, COALESCE(detail, '') FROM scene_outcomes
         WHERE run_id = ? ORDER BY scene`, runID)
	if err != nil {
		return nil, fmt.Errorf("query scene outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []SceneOutcome
	for rows.Next() {
		var o SceneOutcome
		if err := rows.Scan(&o.Scene, &o.Status, &o.Detail); err != nil {
			return nil, fmt.Errorf("scan scene outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
