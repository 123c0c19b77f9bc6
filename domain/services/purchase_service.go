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

// purchaseService implements the transactional ticket purchase operation.
// It must run inside a unit of work: the balance row lock taken by
// GetByUserIDForUpdate is what serializes concurrent purchases by the same
// user, so a second request re-reads the already-decremented balance instead
// of racing on a stale read.
type purchaseService struct {
	userRepo       interfaces.UserRepository
	ticketRepo     interfaces.TicketRepository
	lotteryRepo    interfaces.LotteryRepository
	ledgerRepo     interfaces.LedgerRepository
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	userRepo interfaces.UserRepository,
	ticketRepo interfaces.TicketRepository,
	lotteryRepo interfaces.LotteryRepository,
	ledgerRepo interfaces.LedgerRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.PurchaseService {
	return &purchaseService{
		userRepo:       userRepo,
		ticketRepo:     ticketRepo,
		lotteryRepo:    lotteryRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// Purchase deducts the ticket cost from the user's balance and issues
// tickets, all-or-nothing. Business rule rejections leave zero side effects.
func (s *purchaseService) Purchase(ctx context.Context, userID string, lotteryID int64, quantity int64) (*interfaces.PurchaseResult, error) {
	if quantity <= 0 {
		return nil, NewValidationError("quantity must be positive, got %d", quantity)
	}

	lottery, err := s.lotteryRepo.GetByID(ctx, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery %d: %w", lotteryID, err)
	}
	if lottery == nil {
		return nil, NewValidationError("lottery %d not found", lotteryID)
	}
	if !lottery.IsOpen(s.now()) {
		return nil, ErrItemClosed
	}

	// Row-lock the balance for the remainder of the transaction
	user, err := s.userRepo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance for user %s: %w", userID, err)
	}
	if user == nil {
		return nil, NewValidationError("user %s not found", userID)
	}

	existing, err := s.ticketRepo.GetByUserAndLottery(ctx, userID, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket entry: %w", err)
	}
	var existingCount int64
	if existing != nil {
		existingCount = existing.TicketCount
	}
	if existingCount+quantity > lottery.PerUserCap {
		return nil, ErrLimitExceeded
	}

	totalCost := lottery.UnitCost * quantity
	if user.Balance < totalCost {
		return nil, ErrInsufficientBalance
	}

	newBalance := user.Balance - totalCost
	if err := s.userRepo.UpdateBalance(ctx, userID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance for user %s: %w", userID, err)
	}

	entry := &entities.LedgerEntry{
		EventID: fmt.Sprintf("purchase:%s", uuid.NewString()),
		UserID:  userID,
		Delta:   -totalCost,
		Reason:  entities.LedgerReasonTicketPurchase,
	}
	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append purchase ledger entry: %w", err)
	}

	ticketEntry, err := s.ticketRepo.AddTickets(ctx, userID, lotteryID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add tickets for user %s: %w", userID, err)
	}

	if err := s.eventPublisher.Publish(events.TicketsPurchasedEvent{
		UserID:      userID,
		LotteryID:   lotteryID,
		Quantity:    quantity,
		TotalCost:   totalCost,
		NewBalance:  newBalance,
		TicketCount: ticketEntry.TicketCount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish tickets purchased event")
	}

	return &interfaces.PurchaseResult{
		NewBalance:  newBalance,
		TicketCount: ticketEntry.TicketCount,
		TotalCost:   totalCost,
	}, nil
}
