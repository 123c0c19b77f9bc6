package services

import (
	"context"
	"fmt"
	"time"

	"chatcoin/domain/entities"
	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// drawService implements business logic for deterministic weighted draws
type drawService struct {
	lotteryRepo    interfaces.LotteryRepository
	ticketRepo     interfaces.TicketRepository
	drawRepo       interfaces.DrawRepository
	eventPublisher interfaces.EventPublisher
}

// NewDrawService creates a new draw service
func NewDrawService(
	lotteryRepo interfaces.LotteryRepository,
	ticketRepo interfaces.TicketRepository,
	drawRepo interfaces.DrawRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.DrawService {
	return &drawService{
		lotteryRepo:    lotteryRepo,
		ticketRepo:     ticketRepo,
		drawRepo:       drawRepo,
		eventPublisher: eventPublisher,
	}
}

// RunDraw selects winners for a lottery and persists an immutable draw
// record. The entry snapshot is read inside the caller's transaction, so
// purchases committed afterwards cannot retroactively change the draw.
func (s *drawService) RunDraw(ctx context.Context, lotteryID int64, winnerCount int, seed string) (*entities.DrawRecord, error) {
	if winnerCount <= 0 {
		return nil, NewValidationError("winner count must be positive, got %d", winnerCount)
	}

	lottery, err := s.lotteryRepo.GetByID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery %d: %w", lotteryID, err)
	}
	if lottery == nil {
		return nil, NewValidationError("lottery %d not found", lotteryID)
	}
	if lottery.Drawn {
		return nil, ErrAlreadyDrawn
	}

	// Record the seed before any selection work so the draw is auditable
	// even if it is interrupted
	if seed == "" {
		seed = uuid.NewString()
	}

	entries, err := s.ticketRepo.ListByLottery(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot entries for lottery %d: %w", lotteryID, err)
	}
	if len(entries) == 0 {
		return nil, NewValidationError("lottery %d has no entries", lotteryID)
	}

	snapshot := make([]entities.EntrySnapshot, 0, len(entries))
	for _, entry := range entries {
		snapshot = append(snapshot, entities.EntrySnapshot{
			EntryID:     entry.ID,
			UserID:      entry.UserID,
			TicketCount: entry.TicketCount,
		})
	}

	winners, err := ComputeWinners(seed, snapshot, winnerCount, lottery.ExclusionPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to compute winners for lottery %d: %w", lotteryID, err)
	}

	record := &entities.DrawRecord{
		LotteryID:      lotteryID,
		Seed:           seed,
		DrawnAt:        time.Now().UTC(),
		WinnerEntryIDs: winners,
		EntrySnapshot:  snapshot,
	}

	if err := s.drawRepo.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record draw for lottery %d: %w", lotteryID, err)
	}

	if err := s.lotteryRepo.MarkDrawn(ctx, lotteryID); err != nil {
		return nil, fmt.Errorf("failed to mark lottery %d drawn: %w", lotteryID, err)
	}

	if err := s.eventPublisher.Publish(events.DrawCompletedEvent{
		LotteryID:      lotteryID,
		Seed:           seed,
		WinnerEntryIDs: winners,
	}); err != nil {
		log.WithError(err).Error("Failed to publish draw completed event")
	}

	log.WithFields(log.Fields{
		"lotteryID":   lotteryID,
		"winnerCount": len(winners),
		"entryCount":  len(snapshot),
	}).Info("Lottery draw completed")

	return record, nil
}

// VerifyDraw recomputes the winner list from the stored seed and snapshot
// and asserts it matches the persisted record
func (s *drawService) VerifyDraw(ctx context.Context, lotteryID int64) error {
	record, err := s.drawRepo.GetByLotteryID(ctx, lotteryID)
	if err != nil {
		return fmt.Errorf("failed to get draw record for lottery %d: %w", lotteryID, err)
	}
	if record == nil {
		return NewValidationError("no draw record for lottery %d", lotteryID)
	}

	lottery, err := s.lotteryRepo.GetByID(ctx, lotteryID)
	if err != nil {
		return fmt.Errorf("failed to get lottery %d: %w", lotteryID, err)
	}
	if lottery == nil {
		return NewValidationError("lottery %d not found", lotteryID)
	}

	recomputed, err := ComputeWinners(record.Seed, record.EntrySnapshot, len(record.WinnerEntryIDs), lottery.ExclusionPolicy)
	if err != nil {
		return fmt.Errorf("failed to recompute winners for lottery %d: %w", lotteryID, err)
	}

	if len(recomputed) != len(record.WinnerEntryIDs) {
		return fmt.Errorf("%w: recorded %d winners, recomputed %d", ErrDrawMismatch, len(record.WinnerEntryIDs), len(recomputed))
	}
	for i, entryID := range record.WinnerEntryIDs {
		if recomputed[i] != entryID {
			return fmt.Errorf("%w: winner %d is entry %d on record but entry %d recomputed", ErrDrawMismatch, i, entryID, recomputed[i])
		}
	}

	return nil
}
