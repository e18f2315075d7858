package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/stintstats/internal/store"
)

// Job event kinds.
const (
	EventQueued   = "queued"
	EventRound    = "round"
	EventGame     = "game"
	EventProgress = "progress"
	EventError    = "error"
)

// JobStore persists backfill jobs and their event log in Postgres.
type JobStore struct {
	db *store.Database
}

// NewJobStore constructs a JobStore.
func NewJobStore(db *store.Database) *JobStore {
	return &JobStore{db: db}
}

// Create stores a queued job together with its first event.
func (s *JobStore) Create(ctx context.Context, job *Job) (*Job, error) {
	var created *Job
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO backfill_jobs (job_id, game_ids, rounds, reload, status, status_message, progress_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING `+jobColumns,
			uuid.NewString(), job.GameIDs, job.Rounds, job.Reload, JobStatusQueued,
			job.StatusMessage, job.ProgressTotal,
		)
		var err error
		if created, err = scanJob(row); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		msg := fmt.Sprintf("Job queued with %d games", len(job.GameIDs))
		return insertEvent(ctx, tx, created.JobID, EventQueued, msg, nil)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Claim marks the oldest queued job running and returns it, or nil when the
// queue is empty. A job that had started before counts as a retry.
func (s *JobStore) Claim(ctx context.Context) (*Job, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		WITH next_job AS (
			SELECT job_id FROM backfill_jobs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE backfill_jobs AS j
		SET status = 'running',
			status_message = 'Starting job...',
			retry_count = j.retry_count + CASE WHEN j.started_at IS NULL THEN 0 ELSE 1 END,
			started_at = COALESCE(j.started_at, NOW()),
			updated_at = NOW()
		FROM next_job
		WHERE j.job_id = next_job.job_id
		RETURNING `+qualifiedJobColumns)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// Requeue moves jobs left running by a previous process back to the queue.
func (s *JobStore) Requeue(ctx context.Context) (int64, error) {
	res, err := s.db.DB().ExecContext(ctx, `
		UPDATE backfill_jobs
		SET status = 'queued', status_message = 'Requeued after restart', updated_at = NOW()
		WHERE status = 'running'`)
	if err != nil {
		return 0, fmt.Errorf("requeue jobs: %w", err)
	}
	return res.RowsAffected()
}

// RecordProgress updates a job's counters and logs the step.
func (s *JobStore) RecordProgress(ctx context.Context, jobID string, current, total int, message string) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE backfill_jobs
			SET progress_current = $2, progress_total = $3, status_message = $4, updated_at = NOW()
			WHERE job_id = $1`, jobID, current, total, message)
		if err != nil {
			return fmt.Errorf("update job progress: %w", err)
		}
		return insertEvent(ctx, tx, jobID, EventProgress, message, &[2]int{current, total})
	})
}

// Event logs a job step without progress counters.
func (s *JobStore) Event(ctx context.Context, jobID, kind, message string) error {
	return insertEvent(ctx, s.db.DB(), jobID, kind, message, nil)
}

// Finish closes a job: completed with the summary totals, or failed with
// runErr. summary may be nil when the run never started.
func (s *JobStore) Finish(ctx context.Context, jobID string, summary *Summary, runErr error) error {
	status, message := JobStatusCompleted, ""
	var lastErr sql.NullString
	if runErr != nil {
		status, message = JobStatusFailed, "Job failed"
		lastErr = sql.NullString{String: runErr.Error(), Valid: true}
	}
	if summary == nil {
		summary = &Summary{}
	} else if runErr == nil {
		message = completionMessage(summary)
	}

	_, err := s.db.DB().ExecContext(ctx, `
		UPDATE backfill_jobs
		SET status = $2, status_message = $3, last_error = $4,
			processed = $5, not_ready = $6, failed = $7,
			updated_at = NOW(), completed_at = NOW()
		WHERE job_id = $1`,
		jobID, status, message, lastErr, summary.Processed, summary.NotReady, summary.Failed)
	if err != nil {
		return fmt.Errorf("finish job %s: %w", jobID, err)
	}
	return nil
}

// Get returns one job; a missing job wraps store.ErrNotFound.
func (s *JobStore) Get(ctx context.Context, jobID string) (*Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, fmt.Errorf("job %q: %w", jobID, store.ErrNotFound)
	}
	row := s.db.DB().QueryRowContext(ctx, `SELECT `+jobColumns+` FROM backfill_jobs WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Active returns the running job, if any.
func (s *JobStore) Active(ctx context.Context) (*Job, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM backfill_jobs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1`)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active job: %w", err)
	}
	return job, nil
}

// Recent lists the newest jobs first.
func (s *JobStore) Recent(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT `+jobColumns+` FROM backfill_jobs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Events returns the latest events of a job in the order they happened.
func (s *JobStore) Events(ctx context.Context, jobID string, limit int) ([]JobEvent, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT id, event_type, message, progress_current, progress_total, created_at
		FROM (
			SELECT * FROM backfill_job_events
			WHERE job_id = $1
			ORDER BY id DESC
			LIMIT $2
		) latest
		ORDER BY id`, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	defer rows.Close()

	var events []JobEvent
	for rows.Next() {
		var e JobEvent
		if err := rows.Scan(&e.ID, &e.Kind, &e.Message, &e.ProgressCurrent, &e.ProgressTotal, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// insertEvent appends to a job's log; progress holds current and total.
func insertEvent(ctx context.Context, db execer, jobID, kind, message string, progress *[2]int) error {
	var current, total sql.NullInt64
	if progress != nil {
		current = sql.NullInt64{Int64: int64(progress[0]), Valid: true}
		total = sql.NullInt64{Int64: int64(progress[1]), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO backfill_job_events (job_id, event_type, message, progress_current, progress_total)
		VALUES ($1,$2,$3,$4,$5)`, jobID, kind, message, current, total)
	if err != nil {
		return fmt.Errorf("insert job event: %w", err)
	}
	return nil
}

const jobColumns = `job_id, game_ids, rounds, reload, status, status_message,
	progress_current, progress_total, processed, not_ready, failed,
	last_error, retry_count, created_at, updated_at, started_at, completed_at`

const qualifiedJobColumns = `j.job_id, j.game_ids, j.rounds, j.reload, j.status, j.status_message,
	j.progress_current, j.progress_total, j.processed, j.not_ready, j.failed,
	j.last_error, j.retry_count, j.created_at, j.updated_at, j.started_at, j.completed_at`

func scanJob(scanner interface {
	Scan(dest ...interface{}) error
}) (*Job, error) {
	job := &Job{}
	err := scanner.Scan(
		&job.JobID, &job.GameIDs, &job.Rounds, &job.Reload,
		&job.Status, &job.StatusMessage,
		&job.ProgressCurrent, &job.ProgressTotal,
		&job.Processed, &job.NotReady, &job.Failed,
		&job.LastError, &job.RetryCount,
		&job.CreatedAt, &job.UpdatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
