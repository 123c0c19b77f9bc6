package events

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeCoinsAwarded     EventType = "coins_awarded"
	EventTypeTicketsPurchased EventType = "tickets_purchased"
	EventTypeDrawCompleted    EventType = "draw_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// CoinsAwardedEvent is published after an award job commits. Downstream
// evaluators (referral tier, achievements) subscribe to it; their failures
// can never roll back the award because it is already committed.
type CoinsAwardedEvent struct {
	UserID     string `json:"user_id"`
	EventID    string `json:"event_id"`
	Delta      int64  `json:"delta"`
	NewBalance int64  `json:"new_balance"`
}

func (e CoinsAwardedEvent) Type() EventType {
	return EventTypeCoinsAwarded
}

// TicketsPurchasedEvent is published after a successful ticket purchase
type TicketsPurchasedEvent struct {
	UserID      string `json:"user_id"`
	LotteryID   int64  `json:"lottery_id"`
	Quantity    int64  `json:"quantity"`
	TotalCost   int64  `json:"total_cost"`
	NewBalance  int64  `json:"new_balance"`
	TicketCount int64  `json:"ticket_count"`
}

func (e TicketsPurchasedEvent) Type() EventType {
	return EventTypeTicketsPurchased
}

// DrawCompletedEvent is published after a draw record is persisted
type DrawCompletedEvent struct {
	LotteryID      int64   `json:"lottery_id"`
	Seed           string  `json:"seed"`
	WinnerEntryIDs []int64 `json:"winner_entry_ids"`
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}
