package repository

import (
	"context"
	"errors"
	"fmt"

	"chatcoin/database"
	"chatcoin/domain/entities"
	"chatcoin/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// TicketRepository implements the TicketRepository interface
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a new ticket repository backed by the pool
func NewTicketRepository(db *database.DB) interfaces.TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// newTicketRepository creates a new ticket repository bound to a transaction
func newTicketRepository(tx Queryable) interfaces.TicketRepository {
	return &TicketRepository{q: tx}
}

// GetByUserAndLottery returns the ticket entry for (user, lottery), or nil
func (r *TicketRepository) GetByUserAndLottery(ctx context.Context, userID string, lotteryID int64) (*entities.TicketEntry, error) {
	query := `
		SELECT id, user_id, lottery_id, ticket_count, created_at, updated_at
		FROM ticket_entries
		WHERE user_id = $1 AND lottery_id = $2
	`
	var entry entities.TicketEntry
	err := r.q.QueryRow(ctx, query, userID, lotteryID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.LotteryID,
		&entry.TicketCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket entry for user %s lottery %d: %w", userID, lotteryID, err)
	}
	return &entry, nil
}

// AddTickets upserts the (user, lottery) entry, incrementing ticket_count
func (r *TicketRepository) AddTickets(ctx context.Context, userID string, lotteryID int64, quantity int64) (*entities.TicketEntry, error) {
	query := `
		INSERT INTO ticket_entries (user_id, lottery_id, ticket_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, lottery_id)
		DO UPDATE SET ticket_count = ticket_entries.ticket_count + EXCLUDED.ticket_count,
		              updated_at = now()
		RETURNING id, user_id, lottery_id, ticket_count, created_at, updated_at
	`
	var entry entities.TicketEntry
	err := r.q.QueryRow(ctx, query, userID, lotteryID, quantity).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.LotteryID,
		&entry.TicketCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add %d tickets for user %s lottery %d: %w", quantity, userID, lotteryID, err)
	}
	return &entry, nil
}

// ListByLottery returns all entries for a lottery in entry ID order. Called
// inside the draw transaction, this is the frozen snapshot the draw runs on.
func (r *TicketRepository) ListByLottery(ctx context.Context, lotteryID int64) ([]*entities.TicketEntry, error) {
	query := `
		SELECT id, user_id, lottery_id, ticket_count, created_at, updated_at
		FROM ticket_entries
		WHERE lottery_id = $1
		ORDER BY id
	`
	rows, err := r.q.Query(ctx, query, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket entries for lottery %d: %w", lotteryID, err)
	}
	defer rows.Close()

	var entries []*entities.TicketEntry
	for rows.Next() {
		var entry entities.TicketEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.LotteryID,
			&entry.TicketCount,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ticket entries: %w", err)
	}

	return entries, nil
}
