package application

import (
	"context"
	"fmt"
	"time"

	"chatcoin/domain/entities"
	"chatcoin/domain/services"

	log "github.com/sirupsen/logrus"
)

// ChatEventBuffer is the ephemeral recent-events store consumed by the
// ingestion path and the reward worker
type ChatEventBuffer interface {
	Push(ctx context.Context, event entities.ChatEvent) error
	Recent(ctx context.Context, limit int) ([]entities.ChatEvent, error)
	RecentByUser(ctx context.Context, userID string, limit int) ([]entities.ChatEvent, error)
}

// IngestService accepts chat events, fans them into the ephemeral buffer and
// enqueues one durable award job per event ID
type IngestService struct {
	uowFactory UnitOfWorkFactory
	buffer     ChatEventBuffer
}

// NewIngestService creates a new ingest service
func NewIngestService(uowFactory UnitOfWorkFactory, buffer ChatEventBuffer) *IngestService {
	return &IngestService{
		uowFactory: uowFactory,
		buffer:     buffer,
	}
}

// SubmitChatEvent validates and ingests one chat event. Returns whether a new
// award job was created; a repeated event ID is accepted and returns false.
func (s *IngestService) SubmitChatEvent(ctx context.Context, event entities.ChatEvent) (bool, error) {
	if event.EventID == "" {
		return false, services.NewValidationError("event_id is required")
	}
	if event.UserID == "" {
		return false, services.NewValidationError("user_id is required")
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	payload := entities.NewChatMessagePayload(event.Content, event.EmoteCount, event.Badges, event.IsSubscriber)
	if err := payload.Validate(); err != nil {
		return false, services.NewValidationError("invalid award payload: %v", err)
	}

	// The buffer is the lossy fast path. A buffer failure must never block
	// the durable enqueue.
	if err := s.buffer.Push(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventId": event.EventID,
			"error":   err,
		}).Warn("Failed to push chat event to buffer")
	}

	job := &entities.AwardJob{
		EventID: event.EventID,
		UserID:  event.UserID,
		Payload: payload,
	}
	if event.StreamSessionID != "" {
		sessionID := event.StreamSessionID
		job.StreamSessionID = &sessionID
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	_, created, err := uow.AwardJobRepository().Enqueue(ctx, job)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue award job: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit award job: %w", err)
	}

	if !created {
		log.WithField("eventId", event.EventID).Debug("Duplicate chat event ignored")
	}
	return created, nil
}

// RecentEvents returns the most recent buffered chat events for UI reads
func (s *IngestService) RecentEvents(ctx context.Context, limit int) ([]entities.ChatEvent, error) {
	return s.buffer.Recent(ctx, limit)
}
