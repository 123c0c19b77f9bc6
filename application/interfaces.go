package application

import (
	"context"

	"chatcoin/domain/interfaces"
)

// UnitOfWork represents one database transaction with its scoped
// repositories. Domain events published through EventBus during the
// transaction are flushed only after a successful commit.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters - valid only between Begin and Commit/Rollback
	UserRepository() interfaces.UserRepository
	AwardJobRepository() interfaces.AwardJobRepository
	TicketRepository() interfaces.TicketRepository
	LotteryRepository() interfaces.LotteryRepository
	DrawRepository() interfaces.DrawRepository
	LedgerRepository() interfaces.LedgerRepository

	// EventBus returns the transactional event publisher
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
