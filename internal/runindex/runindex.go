// Package runindex persists a history of batch runs in SQLite so operators
// can compare successive runs of the same input tree.
package runindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one recorded batch invocation.
type Run struct {
	ID           int64
	RunID        string
	InputDir     string
	OutputRoot   string
	ManifestPath string
	DryRun       bool
	Processed    int
	Succeeded    int
	Failed       int
	ExitCode     int
	StartedAt    time.Time
	EndedAt      time.Time
}

// Open initializes or connects to the run-index database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure run index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
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

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS batch_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL UNIQUE,
        input_dir TEXT NOT NULL,
        output_root TEXT NOT NULL,
        manifest_path TEXT NOT NULL,
        dry_run INTEGER NOT NULL,
        processed INTEGER NOT NULL,
        succeeded INTEGER NOT NULL,
        failed INTEGER NOT NULL,
        exit_code INTEGER NOT NULL,
        started_at TEXT NOT NULL,
        ended_at TEXT NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("create batch_runs table: %w", err)
	}
	return nil
}

// Record inserts one finished batch run and returns its row id.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO batch_runs (
            run_id, input_dir, output_root, manifest_path, dry_run,
            processed, succeeded, failed, exit_code, started_at, ended_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.InputDir,
		run.OutputRoot,
		run.ManifestPath,
		boolToInt(run.DryRun),
		run.Processed,
		run.Succeeded,
		run.Failed,
		run.ExitCode,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read batch run id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, input_dir, output_root, manifest_path, dry_run,
            processed, succeeded, failed, exit_code, started_at, ended_at
        FROM batch_runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query batch runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			dryRun    int
			startedAt string
			endedAt   string
		)
		if err := rows.Scan(
			&run.ID, &run.RunID, &run.InputDir, &run.OutputRoot, &run.ManifestPath,
			&dryRun, &run.Processed, &run.Succeeded, &run.Failed, &run.ExitCode,
			&startedAt, &endedAt,
		); err != nil {
			return nil, fmt.Errorf("scan batch run: %w", err)
		}
		run.DryRun = dryRun != 0
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		run.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch runs: %w", err)
	}
	return runs, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
