package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatcoin/database"
	"chatcoin/domain/entities"
	"chatcoin/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// AwardJobRepository implements the AwardJobRepository interface
type AwardJobRepository struct {
	q Queryable
}

// NewAwardJobRepository creates a new award job repository backed by the pool
func NewAwardJobRepository(db *database.DB) interfaces.AwardJobRepository {
	return &AwardJobRepository{q: db.Pool}
}

// newAwardJobRepository creates a new award job repository bound to a transaction
func newAwardJobRepository(tx Queryable) interfaces.AwardJobRepository {
	return &AwardJobRepository{q: tx}
}

const awardJobColumns = `id, event_id, user_id, stream_session_id, payload, status, attempts, locked_at, processed_at, last_error, created_at`

// Enqueue inserts a job unless one with the same event ID already exists.
// Duplicate delivery is a no-op, not an error: the existing job is returned.
func (r *AwardJobRepository) Enqueue(ctx context.Context, job *entities.AwardJob) (*entities.AwardJob, bool, error) {
	payloadJSON, err := json.Marshal(job.Payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal award payload: %w", err)
	}

	insertQuery := `
		INSERT INTO award_jobs (event_id, user_id, stream_session_id, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING ` + awardJobColumns

	inserted, err := r.scanJob(r.q.QueryRow(ctx, insertQuery, job.EventID, job.UserID, job.StreamSessionID, payloadJSON))
	if err != nil {
		return nil, false, fmt.Errorf("failed to enqueue award job for event %s: %w", job.EventID, err)
	}
	if inserted != nil {
		return inserted, true, nil
	}

	// Conflict: the event was already enqueued, return the existing job
	selectQuery := `SELECT ` + awardJobColumns + ` FROM award_jobs WHERE event_id = $1`
	existing, err := r.scanJob(r.q.QueryRow(ctx, selectQuery, job.EventID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing award job for event %s: %w", job.EventID, err)
	}
	if existing == nil {
		return nil, false, fmt.Errorf("award job for event %s vanished during enqueue", job.EventID)
	}
	return existing, false, nil
}

// ClaimBatch atomically claims up to limit jobs that are pending or whose
// processing lock is older than staleLockThreshold. The single UPDATE with
// FOR UPDATE SKIP LOCKED is the sole mutual-exclusion mechanism between
// workers; the stale-lock arm reclaims jobs abandoned by a crashed worker.
func (r *AwardJobRepository) ClaimBatch(ctx context.Context, limit int, staleLockThreshold time.Duration) ([]*entities.AwardJob, error) {
	query := `
		WITH claimable AS (
			SELECT id
			FROM award_jobs
			WHERE status = 'pending'
			   OR (status = 'processing' AND locked_at < now() - $2::interval)
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE award_jobs j
		SET status = 'processing', locked_at = now(), attempts = attempts + 1
		FROM claimable c
		WHERE j.id = c.id
		RETURNING j.id, j.event_id, j.user_id, j.stream_session_id, j.payload, j.status, j.attempts, j.locked_at, j.processed_at, j.last_error, j.created_at
	`

	rows, err := r.q.Query(ctx, query, limit, staleLockThreshold.String())
	if err != nil {
		return nil, fmt.Errorf("failed to claim award job batch: %w", err)
	}
	defer rows.Close()

	var jobs []*entities.AwardJob
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read claimed jobs: %w", err)
	}

	return jobs, nil
}

// Complete marks a job as successfully processed
func (r *AwardJobRepository) Complete(ctx context.Context, jobID int64) error {
	query := `
		UPDATE award_jobs
		SET status = 'completed', processed_at = now(), locked_at = NULL, last_error = NULL
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete award job %d: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("award job %d not found", jobID)
	}
	return nil
}

// Fail records an error on a job. While attempts remain the job returns to
// pending for retry; once attempts reach maxAttempts it is frozen at failed
// and surfaced to the operator queue. Balance is never touched by a failed job.
func (r *AwardJobRepository) Fail(ctx context.Context, jobID int64, jobErr string, maxAttempts int) error {
	query := `
		UPDATE award_jobs
		SET status = CASE WHEN attempts >= $3 THEN 'failed' ELSE 'pending' END,
		    locked_at = NULL,
		    last_error = $2,
		    processed_at = CASE WHEN attempts >= $3 THEN now() ELSE processed_at END
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query, jobID, jobErr, maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to fail award job %d: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("award job %d not found", jobID)
	}
	return nil
}

// ListFailed returns permanently failed jobs for operator inspection
func (r *AwardJobRepository) ListFailed(ctx context.Context, limit int) ([]*entities.AwardJob, error) {
	query := `
		SELECT ` + awardJobColumns + `
		FROM award_jobs
		WHERE status = 'failed'
		ORDER BY processed_at DESC
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed award jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*entities.AwardJob
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read failed jobs: %w", err)
	}

	return jobs, nil
}

func (r *AwardJobRepository) scanJob(row pgx.Row) (*entities.AwardJob, error) {
	var job entities.AwardJob
	var payloadJSON []byte
	err := row.Scan(
		&job.ID,
		&job.EventID,
		&job.UserID,
		&job.StreamSessionID,
		&payloadJSON,
		&job.Status,
		&job.Attempts,
		&job.LockedAt,
		&job.ProcessedAt,
		&job.LastError,
		&job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan award job: %w", err)
	}
	if err := json.Unmarshal(payloadJSON, &job.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload for job %d: %w", job.ID, err)
	}
	return &job, nil
}

func (r *AwardJobRepository) scanJobFromRows(rows pgx.Rows) (*entities.AwardJob, error) {
	var job entities.AwardJob
	var payloadJSON []byte
	err := rows.Scan(
		&job.ID,
		&job.EventID,
		&job.UserID,
		&job.StreamSessionID,
		&payloadJSON,
		&job.Status,
		&job.Attempts,
		&job.LockedAt,
		&job.ProcessedAt,
		&job.LastError,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan award job: %w", err)
	}
	if err := json.Unmarshal(payloadJSON, &job.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload for job %d: %w", job.ID, err)
	}
	return &job, nil
}
