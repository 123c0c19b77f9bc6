package services

import (
	"context"
	"testing"
	"time"

	"chatcoin/domain/entities"
	"chatcoin/domain/events"
	"chatcoin/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type purchaseFixture struct {
	userRepo    *testhelpers.MockUserRepository
	ticketRepo  *testhelpers.MockTicketRepository
	lotteryRepo *testhelpers.MockLotteryRepository
	ledgerRepo  *testhelpers.MockLedgerRepository
	publisher   *testhelpers.RecordingEventPublisher
	svc         *purchaseService
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		userRepo:    new(testhelpers.MockUserRepository),
		ticketRepo:  new(testhelpers.MockTicketRepository),
		lotteryRepo: new(testhelpers.MockLotteryRepository),
		ledgerRepo:  new(testhelpers.MockLedgerRepository),
		publisher:   &testhelpers.RecordingEventPublisher{},
	}
	f.svc = &purchaseService{
		userRepo:       f.userRepo,
		ticketRepo:     f.ticketRepo,
		lotteryRepo:    f.lotteryRepo,
		ledgerRepo:     f.ledgerRepo,
		eventPublisher: f.publisher,
		now:            func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *purchaseFixture) openLottery() *entities.Lottery {
	return &entities.Lottery{
		ID:              1,
		Name:            "weekly",
		UnitCost:        20,
		PerUserCap:      100,
		CutoffAt:        time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ExclusionPolicy: entities.ExclusionSingleWin,
	}
}

func TestPurchaseService_Purchase(t *testing.T) {
	ctx := context.Background()

	t.Run("successful purchase", func(t *testing.T) {
		f := newPurchaseFixture()
		f.lotteryRepo.On("GetByID", ctx, int64(1)).Return(f.openLottery(), nil)
		f.userRepo.On("GetByUserIDForUpdate", ctx, "buyer").Return(&entities.User{UserID: "buyer", Balance: 100}, nil)
		f.ticketRepo.On("GetByUserAndLottery", ctx, "buyer", int64(1)).Return(nil, nil)
		f.userRepo.On("UpdateBalance", ctx, "buyer", int64(40)).Return(nil)
		f.ledgerRepo.On("Append", ctx, mock.MatchedBy(func(entry *entities.LedgerEntry) bool {
			return entry.Delta == -60 && entry.Reason == entities.LedgerReasonTicketPurchase
		})).Return(nil)
		f.ticketRepo.On("AddTickets", ctx, "buyer", int64(1), int64(3)).
			Return(&entities.TicketEntry{UserID: "buyer", LotteryID: 1, TicketCount: 3}, nil)

		result, err := f.svc.Purchase(ctx, "buyer", 1, 3)
		require.NoError(t, err)

		assert.Equal(t, int64(40), result.NewBalance)
		assert.Equal(t, int64(3), result.TicketCount)
		assert.Equal(t, int64(60), result.TotalCost)

		require.Len(t, f.publisher.Events, 1)
		purchased, ok := f.publisher.Events[0].(events.TicketsPurchasedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(60), purchased.TotalCost)

		f.userRepo.AssertExpectations(t)
		f.ledgerRepo.AssertExpectations(t)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		f := newPurchaseFixture()
		f.lotteryRepo.On("GetByID", ctx, int64(1)).Return(f.openLottery(), nil)
		f.userRepo.On("GetByUserIDForUpdate", ctx, "buyer").Return(&entities.User{UserID: "buyer", Balance: 40}, nil)
		f.ticketRepo.On("GetByUserAndLottery", ctx, "buyer", int64(1)).Return(nil, nil)

		_, err := f.svc.Purchase(ctx, "buyer", 1, 3)
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		// No writes, no events
		f.userRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
		f.ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.Events)
	})

	t.Run("per-user cap exceeded", func(t *testing.T) {
		f := newPurchaseFixture()
		lottery := f.openLottery()
		lottery.PerUserCap = 10
		f.lotteryRepo.On("GetByID", ctx, int64(1)).Return(lottery, nil)
		f.userRepo.On("GetByUserIDForUpdate", ctx, "buyer").Return(&entities.User{UserID: "buyer", Balance: 10000}, nil)
		f.ticketRepo.On("GetByUserAndLottery", ctx, "buyer", int64(1)).
			Return(&entities.TicketEntry{UserID: "buyer", LotteryID: 1, TicketCount: 8}, nil)

		_, err := f.svc.Purchase(ctx, "buyer", 1, 3)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("closed lottery", func(t *testing.T) {
		f := newPurchaseFixture()
		lottery := f.openLottery()
		lottery.CutoffAt = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		f.lotteryRepo.On("GetByID", ctx, int64(1)).Return(lottery, nil)

		_, err := f.svc.Purchase(ctx, "buyer", 1, 1)
		assert.ErrorIs(t, err, ErrItemClosed)
	})

	t.Run("drawn lottery is closed", func(t *testing.T) {
		f := newPurchaseFixture()
		lottery := f.openLottery()
		lottery.Drawn = true
		f.lotteryRepo.On("GetByID", ctx, int64(1)).Return(lottery, nil)

		_, err := f.svc.Purchase(ctx, "buyer", 1, 1)
		assert.ErrorIs(t, err, ErrItemClosed)
	})

	t.Run("unknown lottery", func(t *testing.T) {
		f := newPurchaseFixture()
		f.lotteryRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

		_, err := f.svc.Purchase(ctx, "buyer", 99, 1)
		assert.True(t, IsValidationError(err))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		f := newPurchaseFixture()

		_, err := f.svc.Purchase(ctx, "buyer", 1, 0)
		assert.True(t, IsValidationError(err))

		_, err = f.svc.Purchase(ctx, "buyer", 1, -2)
		assert.True(t, IsValidationError(err))
	})
}
