package interfaces

import (
	"context"

	"chatcoin/domain/entities"
	"chatcoin/domain/events"
)

// EventPublisher publishes domain events. Inside a unit of work the
// publisher buffers events and flushes them only after commit.
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events during a transaction and
// publishes them only after commit
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// TransactionalPublisherFactory creates one transactional publisher per
// unit of work
type TransactionalPublisherFactory interface {
	Create() TransactionalEventPublisher
}

// EventSubscriber registers handlers for domain events delivered after commit
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler func(ctx context.Context, event events.Event) error) error
}

// PurchaseResult is the outcome of a successful ticket purchase
type PurchaseResult struct {
	NewBalance  int64
	TicketCount int64
	TotalCost   int64
}

// PurchaseService executes the transactional ticket purchase operation
type PurchaseService interface {
	Purchase(ctx context.Context, userID string, lotteryID int64, quantity int64) (*PurchaseResult, error)
}

// DrawService runs and verifies deterministic weighted draws
type DrawService interface {
	// RunDraw selects winnerCount winners for a lottery. An empty seed
	// generates one; either way the seed is persisted for audit.
	RunDraw(ctx context.Context, lotteryID int64, winnerCount int, seed string) (*entities.DrawRecord, error)

	// VerifyDraw recomputes the winners from the stored seed and snapshot
	// and asserts they match the persisted record
	VerifyDraw(ctx context.Context, lotteryID int64) error
}

// ReferralTierEvaluator is the downstream referral-tier consumer. It observes
// balance changes only; it never writes balances.
type ReferralTierEvaluator interface {
	Evaluate(ctx context.Context, userID string, newBalance int64) error
}

// AchievementEvaluator is the downstream achievement consumer
type AchievementEvaluator interface {
	Evaluate(ctx context.Context, userID string) error
}
