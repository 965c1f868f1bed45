package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "pricepulse/internal/errors"
	"pricepulse/pkg/contracts/domain"
)

// DefaultListLimit caps ListRuns when no limit is given
const DefaultListLimit = 50

const timeLayout = time.RFC3339Nano

// SQLiteRepository stores the integration run history
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies migrations
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveRun stores a run and its steps, replacing any run with the same ID
func (r *SQLiteRepository) SaveRun(ctx context.Context, run domain.RunRecord) error {
	if run.ID == "" {
		return apperrors.NewAppValidationError("run id is required", nil)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_steps WHERE run_id = ?`, run.ID); err != nil {
		return apperrors.NewStorageError("clear run steps", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, succeeded, total, output_file, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			succeeded = excluded.succeeded,
			total = excluded.total,
			output_file = excluded.output_file,
			digest = excluded.digest`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Succeeded,
		run.Total,
		run.OutputFile,
		run.Digest,
	)
	if err != nil {
		return apperrors.NewStorageError("insert run", err).WithContext("run_id", run.ID)
	}

	for i, step := range run.Steps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_steps (run_id, position, step_id, name, status, duration_ms, records, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, step.StepID, step.Name, step.Status,
			step.Duration.Milliseconds(), step.Records, step.Error,
		)
		if err != nil {
			return apperrors.NewStorageError("insert run step", err).
				WithContext("run_id", run.ID).
				WithContext("step_id", step.StepID)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit run", err)
	}

	slog.InfoContext(ctx, "Run saved to SQLite",
		slog.String("run_id", run.ID),
		slog.Int("steps", len(run.Steps)))
	return nil
}

// ListRuns returns the most recent runs first, without their steps
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, succeeded, total, output_file, digest
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	defer rows.Close()

	runs := make([]domain.RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate runs", err)
	}
	return runs, nil
}

// GetRun returns a run with its steps in execution order
func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, succeeded, total, output_file, digest
		FROM runs
		WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT step_id, name, status, duration_ms, records, error
		FROM run_steps
		WHERE run_id = ?
		ORDER BY position`, id)
	if err != nil {
		return nil, apperrors.NewStorageError("list run steps", err)
	}
	defer rows.Close()

	for rows.Next() {
		step := domain.StepOutcome{RunID: id}
		var durationMS int64
		if err := rows.Scan(&step.StepID, &step.Name, &step.Status, &durationMS, &step.Records, &step.Error); err != nil {
			return nil, apperrors.NewStorageError("scan run step", err)
		}
		step.Duration = time.Duration(durationMS) * time.Millisecond
		run.Steps = append(run.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate run steps", err)
	}

	return &run, nil
}

// LatestRun returns the most recent run with its steps
func (r *SQLiteRepository) LatestRun(ctx context.Context) (*domain.RunRecord, error) {
	runs, err := r.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, apperrors.NewNotFoundError("run")
	}
	return r.GetRun(ctx, runs[0].ID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (domain.RunRecord, error) {
	var (
		run                   domain.RunRecord
		startedAt, finishedAt string
	)
	err := s.Scan(&run.ID, &startedAt, &finishedAt, &run.Succeeded, &run.Total, &run.OutputFile, &run.Digest)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, apperrors.NewStorageError("scan run", err)
	}

	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return run, apperrors.NewParsingError("parse started_at", err).WithContext("run_id", run.ID)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return run, apperrors.NewParsingError("parse finished_at", err).WithContext("run_id", run.ID)
	}
	return run, nil
}
