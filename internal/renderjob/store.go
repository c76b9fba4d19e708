package renderjob

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"montage/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape. A mismatched
// database must be cleared before the store will open it.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages render job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the render job database at the given path.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("database path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

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
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (clear the render queue or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
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

// Enqueue inserts a new queued job and returns it with ids and timestamps
// populated.
func (s *Store) Enqueue(ctx context.Context, projectName string, snapshotVersion int64, graphJSON, outputPath string) (*Job, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	jobID := uuid.NewString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO render_jobs (job_id, project_name, snapshot_version, status, graph_json, output_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, nullableString(projectName), snapshotVersion, string(StatusQueued),
		nullableString(graphJSON), nullableString(outputPath),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("enqueue render job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted job id: %w", err)
	}
	return &Job{
		ID:              id,
		JobID:           jobID,
		ProjectName:     projectName,
		SnapshotVersion: snapshotVersion,
		Status:          StatusQueued,
		GraphJSON:       graphJSON,
		OutputPath:      outputPath,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Get returns the job with the given external id.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM render_jobs WHERE job_id = ?", jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrJobNotFound, "renderjob", "get", jobID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load render job: %w", err)
	}
	return job, nil
}

// Update persists mutable fields of a job and bumps updated_at.
func (s *Store) Update(ctx context.Context, job *Job) error {
	ctx = ensureContext(ctx)
	job.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE render_jobs SET
			status = ?, artifact_path = ?, error_message = ?,
			progress_stage = ?, progress_percent = ?, progress_message = ?,
			updated_at = ?
		 WHERE job_id = ?`,
		string(job.Status), nullableString(job.ArtifactPath), nullableString(job.ErrorMessage),
		nullableString(job.ProgressStage), job.ProgressPercent, nullableString(job.ProgressMessage),
		job.UpdatedAt.Format(time.RFC3339Nano), job.JobID)
	if err != nil {
		return fmt.Errorf("update render job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm render job update: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrJobNotFound, "renderjob", "update", job.JobID, nil)
	}
	return nil
}

// NextQueued claims the oldest queued job by moving it to processing.
// Returns nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM render_jobs WHERE status = ? ORDER BY id LIMIT 1",
		string(StatusQueued))
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load next queued job: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		"UPDATE render_jobs SET status = ?, updated_at = ? WHERE job_id = ? AND status = ?",
		string(StatusProcessing), now.Format(time.RFC3339Nano), job.JobID, string(StatusQueued))
	if err != nil {
		return nil, fmt.Errorf("claim queued job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("confirm job claim: %w", err)
	}
	if affected == 0 {
		// Raced with a cancel or another worker; caller retries.
		return nil, nil
	}
	job.Status = StatusProcessing
	job.UpdatedAt = now
	return job, nil
}

// RequestCancel moves a queued or processing job to cancelled. Terminal jobs
// are returned unchanged: a job that already completed stays completed, so a
// finished artifact is never discarded by a late cancel.
func (s *Store) RequestCancel(ctx context.Context, jobID string) (*Job, error) {
	ctx = ensureContext(ctx)
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE render_jobs SET status = ?, progress_message = ?, updated_at = ?
		 WHERE job_id = ? AND status IN (?, ?)`,
		string(StatusCancelled), "cancelled by user", now.Format(time.RFC3339Nano),
		jobID, string(StatusQueued), string(StatusProcessing))
	if err != nil {
		return nil, fmt.Errorf("cancel render job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("confirm job cancel: %w", err)
	}
	if affected == 0 {
		// The job reached a terminal state between read and write.
		return s.Get(ctx, jobID)
	}
	job.Status = StatusCancelled
	job.ProgressMessage = "cancelled by user"
	job.UpdatedAt = now
	return job, nil
}

// MarkCompleted records the artifact and moves the job to completed. A
// completed artifact wins over a concurrent cancellation: if the job was
// cancelled while the engine finished anyway, the completion still lands.
func (s *Store) MarkCompleted(ctx context.Context, jobID, artifactPath string) (*Job, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE render_jobs SET status = ?, artifact_path = ?, error_message = NULL,
			progress_stage = ?, progress_percent = 100, progress_message = ?, updated_at = ?
		 WHERE job_id = ? AND status IN (?, ?, ?)`,
		string(StatusCompleted), nullableString(artifactPath),
		"Completed", "render complete", now.Format(time.RFC3339Nano),
		jobID, string(StatusQueued), string(StatusProcessing), string(StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("complete render job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("confirm job completion: %w", err)
	}
	if affected == 0 {
		return s.Get(ctx, jobID)
	}
	return s.Get(ctx, jobID)
}

// MarkFailed records a failure. Cancelled jobs stay cancelled.
func (s *Store) MarkFailed(ctx context.Context, jobID, message string) (*Job, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`UPDATE render_jobs SET status = ?, error_message = ?,
			progress_stage = ?, progress_percent = 0, progress_message = ?, updated_at = ?
		 WHERE job_id = ? AND status IN (?, ?)`,
		string(StatusFailed), nullableString(message),
		"Failed", nullableString(message), now.Format(time.RFC3339Nano),
		jobID, string(StatusQueued), string(StatusProcessing)); err != nil {
		return nil, fmt.Errorf("fail render job: %w", err)
	}
	return s.Get(ctx, jobID)
}

// List returns jobs filtered by status, newest first. An empty filter returns
// every job.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + jobColumns + " FROM render_jobs"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list render jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan render job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate render jobs: %w", err)
	}
	return jobs, nil
}

// Clear deletes jobs in terminal states and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		"DELETE FROM render_jobs WHERE status IN (?, ?, ?)",
		string(StatusCompleted), string(StatusFailed), string(StatusCancelled))
	if err != nil {
		return 0, fmt.Errorf("clear render jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared jobs: %w", err)
	}
	return affected, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
