package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/pathtrie/internal/models"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded index run
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       string
	Roots        []string
	IndexDir     string
	Workers      int
	Entries      int64
	Directories  int64
	Skipped      int64
	Flushes      int64
	CapReached   bool
	Duration     time.Duration
	ErrorMessage string
}

// StartRun records a new run in the running state and returns it.
func (s *Store) StartRun(ctx context.Context, roots []string, indexDir string, workers int) (*Run, error) {
	rootsJSON, err := json.Marshal(roots)
	if err != nil {
		return nil, fmt.Errorf("marshal roots: %w", err)
	}

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: s.now().UTC(),
		Status:    StatusRunning,
		Roots:     roots,
		IndexDir:  indexDir,
		Workers:   workers,
	}

	query := `INSERT INTO index_runs (id, started_at, status, roots, index_dir, workers)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, run.ID, run.StartedAt, run.Status, string(rootsJSON), indexDir, workers)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final statistics of a run. The status is derived from
// runErr: nil is success, context cancellation or deadline is cancelled, and
// anything else is failed.
func (s *Store) FinishRun(ctx context.Context, id string, stats models.CrawlStats, runErr error) error {
	status := StatusSuccess
	var errMsg sql.NullString
	if runErr != nil {
		status = StatusFailed
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			status = StatusCancelled
		}
		errMsg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	query := `UPDATE index_runs SET
		finished_at = ?, status = ?, entries = ?, directories = ?, skipped = ?,
		flushes = ?, cap_reached = ?, duration_ms = ?, error_message = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		s.now().UTC(), status, stats.Entries, stats.Directories, stats.Skipped,
		stats.Flushes, stats.CapReached, stats.Duration.Milliseconds(), errMsg, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, roots, index_dir, workers,
	entries, directories, skipped, flushes, cap_reached, duration_ms, error_message`

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM index_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM index_runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		finishedAt sql.NullTime
		rootsJSON  string
		durationMs int64
		errMsg     sql.NullString
	)
	err := row.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Status, &rootsJSON, &run.IndexDir,
		&run.Workers, &run.Entries, &run.Directories, &run.Skipped, &run.Flushes, &run.CapReached,
		&durationMs, &errMsg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(rootsJSON), &run.Roots); err != nil {
		return nil, fmt.Errorf("unmarshal roots: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.ErrorMessage = errMsg.String
	return &run, nil
}
