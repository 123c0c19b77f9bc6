package entities

import "time"

// TicketEntry represents a user's accumulated tickets for one lottery.
// One row per (user, lottery); repeat purchases increment TicketCount.
type TicketEntry struct {
	ID          int64     `db:"id"`
	UserID      string    `db:"user_id"`
	LotteryID   int64     `db:"lottery_id"`
	TicketCount int64     `db:"ticket_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
