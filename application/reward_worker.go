package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"chatcoin/database"
	"chatcoin/domain/entities"
	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"
	"chatcoin/domain/services"
	"chatcoin/infrastructure/observability"

	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"
)

// RewardWorkerConfig holds the worker loop parameters
type RewardWorkerConfig struct {
	BatchSize          int
	PollInterval       time.Duration
	IdleInterval       time.Duration
	StaleLockThreshold time.Duration
	MaxJobAttempts     int
}

// RewardWorker drains the award job queue. It claims batches with row locks,
// applies each job in its own transaction and relies on the ledger's event ID
// uniqueness so a reclaimed job whose first worker crashed after commit can
// never credit twice.
type RewardWorker struct {
	uowFactory    UnitOfWorkFactory
	buffer        ChatEventBuffer
	rewardService *services.RewardService
	botFilter     *services.BotFilter
	cfg           RewardWorkerConfig
}

// NewRewardWorker creates a new reward worker
func NewRewardWorker(
	uowFactory UnitOfWorkFactory,
	buffer ChatEventBuffer,
	rewardService *services.RewardService,
	botFilter *services.BotFilter,
	cfg RewardWorkerConfig,
) *RewardWorker {
	return &RewardWorker{
		uowFactory:    uowFactory,
		buffer:        buffer,
		rewardService: rewardService,
		botFilter:     botFilter,
		cfg:           cfg,
	}
}

// Start runs the worker loop until the context is cancelled
func (w *RewardWorker) Start(ctx context.Context) {
	log.WithFields(log.Fields{
		"batchSize":    w.cfg.BatchSize,
		"pollInterval": w.cfg.PollInterval,
	}).Info("Reward worker started")

	for {
		processed, err := w.ProcessBatch(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to process award job batch")
		}

		wait := w.cfg.PollInterval
		if processed == 0 {
			// Idle backoff with jitter so multiple workers do not poll in
			// lockstep
			wait = w.cfg.IdleInterval + time.Duration(rand.Int63n(int64(w.cfg.IdleInterval)/2+1))
		}

		select {
		case <-ctx.Done():
			log.Info("Reward worker stopped")
			return
		case <-time.After(wait):
		}
	}
}

// ProcessBatch claims and processes one batch of jobs, returning how many
// jobs were claimed
func (w *RewardWorker) ProcessBatch(ctx context.Context) (int, error) {
	jobs, err := w.claimJobs(ctx)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	observability.JobsClaimed.Add(float64(len(jobs)))

	for _, job := range jobs {
		w.processJob(ctx, job)
	}
	return len(jobs), nil
}

// claimJobs claims a batch inside its own committed transaction so the
// processing locks survive into the per-job transactions
func (w *RewardWorker) claimJobs(ctx context.Context) ([]*entities.AwardJob, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	jobs, err := uow.AwardJobRepository().ClaimBatch(ctx, w.cfg.BatchSize, w.cfg.StaleLockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to claim award jobs: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return jobs, nil
}

// processJob applies one job, retrying transient failures before recording a
// permanent failure
func (w *RewardWorker) processJob(ctx context.Context, job *entities.AwardJob) {
	start := time.Now()

	backoff := retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		applyErr := w.applyJob(ctx, job)
		if applyErr != nil && database.IsTransient(applyErr) {
			return retry.RetryableError(applyErr)
		}
		return applyErr
	})

	observability.JobProcessingDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		observability.JobsProcessed.WithLabelValues("completed").Inc()
		return
	}

	log.WithFields(log.Fields{
		"jobId":    job.ID,
		"eventId":  job.EventID,
		"attempts": job.Attempts,
		"error":    err,
	}).Error("Award job failed")

	observability.JobsProcessed.WithLabelValues("failed").Inc()

	// A validation failure can never succeed on a later attempt, so the job
	// goes straight to the operator queue instead of back to pending
	w.failJob(ctx, job, err, services.IsValidationError(err))
}

// applyJob runs the reward computation and balance update for one job in a
// single transaction. The ledger append runs first; a duplicate event ID
// means the job already committed once, so the job is completed without any
// further writes.
func (w *RewardWorker) applyJob(ctx context.Context, job *entities.AwardJob) error {
	if err := job.Payload.Validate(); err != nil {
		return services.NewValidationError("malformed award payload on job %d: %v", job.ID, err)
	}
	msg := job.Payload.ChatMessage

	// History feeds the bot filter and the streak bonus. The buffer is
	// ephemeral, so a read failure degrades to an empty history instead of
	// blocking the award.
	history, err := w.buffer.RecentByUser(ctx, job.UserID, 50)
	if err != nil {
		log.WithFields(log.Fields{
			"userId": job.UserID,
			"error":  err,
		}).Warn("Failed to read event buffer history")
		history = nil
	}

	delta := int64(0)
	reason := entities.LedgerReasonChatReward

	verdict := w.botFilter.Evaluate(msg.Content, history)
	if verdict.Flagged {
		reason = entities.LedgerReasonFiltered
		observability.MessagesFiltered.WithLabelValues(verdict.Rule).Inc()
		log.WithFields(log.Fields{
			"eventId": job.EventID,
			"rule":    verdict.Rule,
		}).Info("Chat event filtered")
	} else {
		streak := 0
		if job.StreamSessionID != nil {
			streak = services.SessionStreak(history, *job.StreamSessionID)
		}
		delta = w.rewardService.ComputeDelta(msg, streak)
	}

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin job transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	err = uow.LedgerRepository().Append(ctx, &entities.LedgerEntry{
		EventID: job.EventID,
		UserID:  job.UserID,
		Delta:   delta,
		Reason:  reason,
	})
	if errors.Is(err, interfaces.ErrDuplicateEvent) {
		// Already applied by an earlier attempt that crashed before
		// completing the job. The append poisoned this transaction, so the
		// completion needs a fresh one.
		_ = uow.Rollback()
		return w.completeOnly(ctx, job.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	user, err := uow.UserRepository().GetOrCreate(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", job.UserID, err)
	}

	newBalance := user.Balance + delta
	if delta != 0 {
		if err := uow.UserRepository().UpdateBalance(ctx, job.UserID, newBalance); err != nil {
			return fmt.Errorf("failed to update balance for %s: %w", job.UserID, err)
		}
	}

	if err := uow.AwardJobRepository().Complete(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to complete job %d: %w", job.ID, err)
	}

	if !verdict.Flagged {
		if err := uow.EventBus().Publish(events.CoinsAwardedEvent{
			UserID:     job.UserID,
			EventID:    job.EventID,
			Delta:      delta,
			NewBalance: newBalance,
		}); err != nil {
			log.WithError(err).Warn("Failed to buffer coins awarded event")
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit job %d: %w", job.ID, err)
	}

	if delta > 0 {
		observability.CoinsAwarded.Add(float64(delta))
	}
	return nil
}

// completeOnly marks a job completed without touching balances
func (w *RewardWorker) completeOnly(ctx context.Context, jobID int64) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin completion transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	if err := uow.AwardJobRepository().Complete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to complete job %d: %w", jobID, err)
	}
	return uow.Commit()
}

// failJob records the job failure, returning it to pending while attempts
// remain. A permanent failure freezes the job regardless of attempts left.
func (w *RewardWorker) failJob(ctx context.Context, job *entities.AwardJob, jobErr error, permanent bool) {
	maxAttempts := w.cfg.MaxJobAttempts
	if permanent {
		maxAttempts = 0
	}

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin failure transaction")
		return
	}
	defer func() {
		_ = uow.Rollback()
	}()

	if err := uow.AwardJobRepository().Fail(ctx, job.ID, jobErr.Error(), maxAttempts); err != nil {
		log.WithFields(log.Fields{
			"jobId": job.ID,
			"error": err,
		}).Error("Failed to record job failure")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit job failure")
	}
}
