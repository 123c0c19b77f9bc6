package entities

import "time"

// LedgerReason categorizes a ledger entry
type LedgerReason string

const (
	LedgerReasonChatReward     LedgerReason = "chat_reward"
	LedgerReasonFiltered       LedgerReason = "filtered"
	LedgerReasonTicketPurchase LedgerReason = "ticket_purchase"
)

// LedgerEntry is one append-only balance delta. The event_id uniqueness
// constraint is the final idempotency backstop: even if job-table semantics
// are ever violated, an event can never apply twice.
type LedgerEntry struct {
	ID        int64        `db:"id"`
	EventID   string       `db:"event_id"`
	UserID    string       `db:"user_id"`
	Delta     int64        `db:"delta"`
	Reason    LedgerReason `db:"reason"`
	CreatedAt time.Time    `db:"created_at"`
}
