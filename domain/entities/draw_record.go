package entities

import "time"

// EntrySnapshot is one (entry, ticket count) pair frozen at draw time.
// Ordering matters: ranges are assigned in snapshot order, so verification
// must replay the snapshot exactly as stored.
type EntrySnapshot struct {
	EntryID     int64  `json:"entry_id"`
	UserID      string `json:"user_id"`
	TicketCount int64  `json:"ticket_count"`
}

// DrawRecord is the immutable audit record of a completed draw. Anyone
// holding the seed and the snapshot can recompute the identical winner list.
type DrawRecord struct {
	LotteryID      int64           `db:"lottery_id"`
	Seed           string          `db:"seed"`
	DrawnAt        time.Time       `db:"drawn_at"`
	WinnerEntryIDs []int64         `db:"winner_entry_ids"`
	EntrySnapshot  []EntrySnapshot `db:"entry_snapshot"`
}
