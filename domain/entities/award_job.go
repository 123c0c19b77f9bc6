package entities

import "time"

// AwardJobStatus represents the lifecycle state of an award job
type AwardJobStatus string

const (
	AwardJobStatusPending    AwardJobStatus = "pending"
	AwardJobStatusProcessing AwardJobStatus = "processing"
	AwardJobStatusCompleted  AwardJobStatus = "completed"
	AwardJobStatusFailed     AwardJobStatus = "failed"
)

// AwardJob represents one durable unit of reward work, created at most once
// per chat event. A job stuck in processing past the stale-lock threshold is
// reclaimed by the next ClaimBatch.
type AwardJob struct {
	ID              int64          `db:"id"`
	EventID         string         `db:"event_id"`
	UserID          string         `db:"user_id"`
	StreamSessionID *string        `db:"stream_session_id"`
	Payload         AwardPayload   `db:"payload"`
	Status          AwardJobStatus `db:"status"`
	Attempts        int            `db:"attempts"`
	LockedAt        *time.Time     `db:"locked_at"`
	ProcessedAt     *time.Time     `db:"processed_at"`
	LastError       *string        `db:"last_error"`
	CreatedAt       time.Time      `db:"created_at"`
}

// IsTerminal returns true if the job has reached a final state
func (j *AwardJob) IsTerminal() bool {
	return j.Status == AwardJobStatusCompleted || j.Status == AwardJobStatusFailed
}

// IsStale returns true if the job is processing but its lock is older than
// the given threshold, indicating a crashed worker
func (j *AwardJob) IsStale(threshold time.Duration, now time.Time) bool {
	return j.Status == AwardJobStatusProcessing &&
		j.LockedAt != nil &&
		now.Sub(*j.LockedAt) > threshold
}
