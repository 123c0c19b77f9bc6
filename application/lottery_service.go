package application

import (
	"context"
	"fmt"
	"time"

	"chatcoin/config"
	"chatcoin/domain/entities"
	"chatcoin/domain/interfaces"
	"chatcoin/domain/services"
	"chatcoin/infrastructure/observability"
)

// LotteryService coordinates lottery operations. Each operation runs inside
// one unit of work so the domain services see repositories bound to a single
// transaction.
type LotteryService struct {
	uowFactory          UnitOfWorkFactory
	purchaseLockTimeout time.Duration
}

// NewLotteryService creates a new lottery service
func NewLotteryService(uowFactory UnitOfWorkFactory, purchaseLockTimeout time.Duration) *LotteryService {
	return &LotteryService{
		uowFactory:          uowFactory,
		purchaseLockTimeout: purchaseLockTimeout,
	}
}

// CreateLottery persists a new lottery. A zero per-user cap takes the
// configured default; the cap is frozen on the row at creation.
func (s *LotteryService) CreateLottery(ctx context.Context, lottery *entities.Lottery) error {
	if lottery.UnitCost <= 0 {
		return services.NewValidationError("unit cost must be positive, got %d", lottery.UnitCost)
	}
	if lottery.PerUserCap == 0 {
		lottery.PerUserCap = config.Get().PerUserTicketCap
	}
	if lottery.PerUserCap < 0 {
		return services.NewValidationError("per-user cap must not be negative, got %d", lottery.PerUserCap)
	}
	switch lottery.ExclusionPolicy {
	case entities.ExclusionSingleWin, entities.ExclusionRepeatOK:
	default:
		return services.NewValidationError("unknown exclusion policy %q", lottery.ExclusionPolicy)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	if err := uow.LotteryRepository().Create(ctx, lottery); err != nil {
		return fmt.Errorf("failed to create lottery: %w", err)
	}
	return uow.Commit()
}

// PurchaseTickets buys tickets atomically. A lock wait longer than the
// purchase lock timeout aborts the transaction rather than queueing callers
// indefinitely behind a stuck row lock.
func (s *LotteryService) PurchaseTickets(ctx context.Context, userID string, lotteryID int64, quantity int64) (*interfaces.PurchaseResult, error) {
	if s.purchaseLockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.purchaseLockTimeout)
		defer cancel()
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	purchaseService := services.NewPurchaseService(
		uow.UserRepository(),
		uow.TicketRepository(),
		uow.LotteryRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)

	result, err := purchaseService.Purchase(ctx, userID, lotteryID, quantity)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	observability.TicketsPurchased.Add(float64(quantity))
	return result, nil
}

// RunDraw executes the draw for a lottery inside one transaction
func (s *LotteryService) RunDraw(ctx context.Context, lotteryID int64, winnerCount int, seed string) (*entities.DrawRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	drawService := services.NewDrawService(
		uow.LotteryRepository(),
		uow.TicketRepository(),
		uow.DrawRepository(),
		uow.EventBus(),
	)

	record, err := drawService.RunDraw(ctx, lotteryID, winnerCount, seed)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit draw: %w", err)
	}

	observability.DrawsCompleted.Inc()
	return record, nil
}

// VerifyDraw recomputes a persisted draw from its seed and snapshot
func (s *LotteryService) VerifyDraw(ctx context.Context, lotteryID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	drawService := services.NewDrawService(
		uow.LotteryRepository(),
		uow.TicketRepository(),
		uow.DrawRepository(),
		uow.EventBus(),
	)

	return drawService.VerifyDraw(ctx, lotteryID)
}
