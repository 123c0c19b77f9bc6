package interfaces

import (
	"context"
	"time"

	"chatcoin/domain/entities"
)

// UserRepository manages coin balance rows
type UserRepository interface {
	// GetByUserID retrieves a user, or nil if not found
	GetByUserID(ctx context.Context, userID string) (*entities.User, error)

	// GetByUserIDForUpdate retrieves a user holding the row lock for the
	// duration of the surrounding transaction
	GetByUserIDForUpdate(ctx context.Context, userID string) (*entities.User, error)

	// GetOrCreate retrieves a user, creating the row with a zero balance if absent
	GetOrCreate(ctx context.Context, userID string) (*entities.User, error)

	// UpdateBalance sets a user's balance to the given value
	UpdateBalance(ctx context.Context, userID string, newBalance int64) error
}

// AwardJobRepository manages the durable award job queue
type AwardJobRepository interface {
	// Enqueue inserts a job unless one with the same event ID exists.
	// Returns the stored job and whether a new row was created.
	Enqueue(ctx context.Context, job *entities.AwardJob) (*entities.AwardJob, bool, error)

	// ClaimBatch atomically claims up to limit jobs that are pending or
	// whose processing lock is older than staleLockThreshold
	ClaimBatch(ctx context.Context, limit int, staleLockThreshold time.Duration) ([]*entities.AwardJob, error)

	// Complete marks a job as successfully processed
	Complete(ctx context.Context, jobID int64) error

	// Fail records an error on a job, returning it to pending while attempts
	// remain and freezing it at failed once maxAttempts is reached
	Fail(ctx context.Context, jobID int64, jobErr string, maxAttempts int) error

	// ListFailed returns permanently failed jobs for operator inspection
	ListFailed(ctx context.Context, limit int) ([]*entities.AwardJob, error)
}

// TicketRepository manages lottery ticket entries
type TicketRepository interface {
	// GetByUserAndLottery returns the entry for (user, lottery), or nil
	GetByUserAndLottery(ctx context.Context, userID string, lotteryID int64) (*entities.TicketEntry, error)

	// AddTickets upserts the entry, incrementing ticket_count by quantity
	AddTickets(ctx context.Context, userID string, lotteryID int64, quantity int64) (*entities.TicketEntry, error)

	// ListByLottery returns all entries for a lottery ordered by entry ID
	ListByLottery(ctx context.Context, lotteryID int64) ([]*entities.TicketEntry, error)
}

// LotteryRepository manages lottery items
type LotteryRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Lottery, error)
	Create(ctx context.Context, lottery *entities.Lottery) error
	MarkDrawn(ctx context.Context, id int64) error
}

// DrawRepository manages immutable draw records
type DrawRepository interface {
	// Record persists a draw record; a second record for the same lottery
	// is rejected
	Record(ctx context.Context, record *entities.DrawRecord) error

	GetByLotteryID(ctx context.Context, lotteryID int64) (*entities.DrawRecord, error)
}

// LedgerRepository manages the append-only balance ledger
type LedgerRepository interface {
	// Append adds a ledger entry. A duplicate event ID returns
	// ErrDuplicateEvent without writing anything.
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByUser returns a user's most recent entries
	GetByUser(ctx context.Context, userID string, limit int) ([]*entities.LedgerEntry, error)

	// SumDeltas returns the sum of all deltas for a user, which must always
	// equal the user's current balance
	SumDeltas(ctx context.Context, userID string) (int64, error)
}
