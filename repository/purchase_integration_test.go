package repository

import (
	"context"
	"sync"
	"testing"

	"chatcoin/application"
	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"
	"chatcoin/domain/services"
	"chatcoin/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher satisfies TransactionalEventPublisher for tests
type recordingPublisher struct {
	mu      sync.Mutex
	flushed []events.Event
	pending []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

func (p *recordingPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushed = append(p.flushed, p.pending...)
	p.pending = nil
	return nil
}

func (p *recordingPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
}

type recordingPublisherFactory struct {
	publisher *recordingPublisher
}

func (f *recordingPublisherFactory) Create() interfaces.TransactionalEventPublisher {
	return f.publisher
}

func setupPurchaseTest(t *testing.T) (*testutil.TestDatabase, application.UnitOfWorkFactory, *recordingPublisher) {
	testDB := testutil.SetupTestDatabase(t)
	publisher := &recordingPublisher{}
	factory := NewUnitOfWorkFactory(testDB.DB, &recordingPublisherFactory{publisher: publisher})
	return testDB, factory, publisher
}

func purchase(ctx context.Context, factory application.UnitOfWorkFactory, userID string, lotteryID, quantity int64) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	svc := services.NewPurchaseService(
		uow.UserRepository(),
		uow.TicketRepository(),
		uow.LotteryRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
	)
	if _, err := svc.Purchase(ctx, userID, lotteryID, quantity); err != nil {
		return err
	}
	return uow.Commit()
}

func TestPurchase_Atomicity(t *testing.T) {
	t.Parallel()
	testDB, factory, publisher := setupPurchaseTest(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	lotteryRepo := NewLotteryRepository(testDB.DB)
	ledgerRepo := NewLedgerRepository(testDB.DB)

	_, err := userRepo.GetOrCreate(ctx, "buyer")
	require.NoError(t, err)
	require.NoError(t, userRepo.UpdateBalance(ctx, "buyer", 100))

	lottery := testutil.CreateTestLottery("weekly")
	require.NoError(t, lotteryRepo.Create(ctx, lottery))

	t.Run("successful purchase debits and issues atomically", func(t *testing.T) {
		require.NoError(t, purchase(ctx, factory, "buyer", lottery.ID, 3))

		user, err := userRepo.GetByUserID(ctx, "buyer")
		require.NoError(t, err)
		assert.Equal(t, int64(40), user.Balance)

		sum, err := ledgerRepo.SumDeltas(ctx, "buyer")
		require.NoError(t, err)
		assert.Equal(t, user.Balance-100, sum)

		// Event flushed only after commit
		require.Len(t, publisher.flushed, 1)
		purchased, ok := publisher.flushed[0].(events.TicketsPurchasedEvent)
		require.True(t, ok)
		assert.Equal(t, int64(60), purchased.TotalCost)
	})

	t.Run("insufficient balance leaves no side effects", func(t *testing.T) {
		err := purchase(ctx, factory, "buyer", lottery.ID, 3)
		assert.ErrorIs(t, err, services.ErrInsufficientBalance)

		user, err := userRepo.GetByUserID(ctx, "buyer")
		require.NoError(t, err)
		assert.Equal(t, int64(40), user.Balance)

		ticketRepo := NewTicketRepository(testDB.DB)
		entry, err := ticketRepo.GetByUserAndLottery(ctx, "buyer", lottery.ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, int64(3), entry.TicketCount)

		// No new event
		assert.Len(t, publisher.flushed, 1)
	})
}

func TestPurchase_ConcurrentNoOverspend(t *testing.T) {
	t.Parallel()
	testDB, factory, _ := setupPurchaseTest(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	lotteryRepo := NewLotteryRepository(testDB.DB)

	_, err := userRepo.GetOrCreate(ctx, "racer")
	require.NoError(t, err)
	require.NoError(t, userRepo.UpdateBalance(ctx, "racer", 100))

	lottery := testutil.CreateTestLottery("contested")
	require.NoError(t, lotteryRepo.Create(ctx, lottery))

	// 10 concurrent purchases of 3 tickets at 20 each; only one can afford it
	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each goroutine needs its own unit of work
			errs[i] = purchase(ctx, factory, "racer", lottery.ID, 3)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, services.ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 1, succeeded)

	user, err := userRepo.GetByUserID(ctx, "racer")
	require.NoError(t, err)
	assert.Equal(t, int64(40), user.Balance)

	ticketRepo := NewTicketRepository(testDB.DB)
	entry, err := ticketRepo.GetByUserAndLottery(ctx, "racer", lottery.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(3), entry.TicketCount)

	// Conservation: balance always equals the ledger sum
	ledgerRepo := NewLedgerRepository(testDB.DB)
	sum, err := ledgerRepo.SumDeltas(ctx, "racer")
	require.NoError(t, err)
	assert.Equal(t, user.Balance-100, sum)
}
