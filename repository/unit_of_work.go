package repository

import (
	"context"
	"fmt"

	"chatcoin/application"
	"chatcoin/database"
	"chatcoin/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db           *database.DB
	tx           pgx.Tx
	ctx          context.Context
	publisher    interfaces.TransactionalEventPublisher
	userRepo     interfaces.UserRepository
	awardJobRepo interfaces.AwardJobRepository
	ticketRepo   interfaces.TicketRepository
	lotteryRepo  interfaces.LotteryRepository
	drawRepo     interfaces.DrawRepository
	ledgerRepo   interfaces.LedgerRepository
}

type unitOfWorkFactory struct {
	db               *database.DB
	publisherFactory interfaces.TransactionalPublisherFactory
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, publisherFactory interfaces.TransactionalPublisherFactory) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:               db,
		publisherFactory: publisherFactory,
	}
}

// Create creates a new UnitOfWork with its own transactional publisher
func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		db:        f.db,
		publisher: f.publisherFactory.Create(),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Bind repositories to the transaction
	u.userRepo = newUserRepository(tx)
	u.awardJobRepo = newAwardJobRepository(tx)
	u.ticketRepo = newTicketRepository(tx)
	u.lotteryRepo = newLotteryRepository(tx)
	u.drawRepo = newDrawRepository(tx)
	u.ledgerRepo = newLedgerRepository(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Events are best-effort after commit: the database transaction has
	// already succeeded, so publish errors must not surface as failures
	if u.publisher != nil {
		_ = u.publisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	if u.publisher != nil {
		u.publisher.Discard()
	}

	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// AwardJobRepository returns the award job repository for this unit of work
func (u *unitOfWork) AwardJobRepository() interfaces.AwardJobRepository {
	if u.awardJobRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.awardJobRepo
}

// TicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	if u.ticketRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ticketRepo
}

// LotteryRepository returns the lottery repository for this unit of work
func (u *unitOfWork) LotteryRepository() interfaces.LotteryRepository {
	if u.lotteryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.lotteryRepo
}

// DrawRepository returns the draw repository for this unit of work
func (u *unitOfWork) DrawRepository() interfaces.DrawRepository {
	if u.drawRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawRepo
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() interfaces.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.publisher == nil {
		panic("transactional publisher not configured")
	}
	return u.publisher
}
