package entities

import "time"

// User represents a viewer's coin account. Balance is the single source of
// truth and is only mutated inside a transaction holding the row lock.
type User struct {
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
