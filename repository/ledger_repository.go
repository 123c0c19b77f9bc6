package repository

import (
	"context"
	"fmt"

	"chatcoin/database"
	"chatcoin/domain/entities"
	"chatcoin/domain/interfaces"
)

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q Queryable
}

// NewLedgerRepository creates a new ledger repository backed by the pool
func NewLedgerRepository(db *database.DB) interfaces.LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepository creates a new ledger repository bound to a transaction
func newLedgerRepository(tx Queryable) interfaces.LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Append adds a ledger entry. The unique constraint on event_id is the final
// idempotency backstop: a duplicate returns ErrDuplicateEvent without
// writing anything.
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (event_id, user_id, delta, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		entry.EventID,
		entry.UserID,
		entry.Delta,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return interfaces.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to append ledger entry for event %s: %w", entry.EventID, err)
	}
	return nil
}

// GetByUser returns a user's most recent ledger entries
func (r *LedgerRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, event_id, user_id, delta, reason, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var entry entities.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.UserID,
			&entry.Delta,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}

	return entries, nil
}

// SumDeltas returns the sum of all deltas for a user. Conservation holds
// when this equals the user's current balance.
func (r *LedgerRepository) SumDeltas(ctx context.Context, userID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(delta), 0)
		FROM ledger_entries
		WHERE user_id = $1
	`
	var sum int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum ledger deltas for user %s: %w", userID, err)
	}
	return sum, nil
}
