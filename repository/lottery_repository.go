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

// LotteryRepository implements the LotteryRepository interface
type LotteryRepository struct {
	q Queryable
}

// NewLotteryRepository creates a new lottery repository backed by the pool
func NewLotteryRepository(db *database.DB) interfaces.LotteryRepository {
	return &LotteryRepository{q: db.Pool}
}

// newLotteryRepository creates a new lottery repository bound to a transaction
func newLotteryRepository(tx Queryable) interfaces.LotteryRepository {
	return &LotteryRepository{q: tx}
}

// GetByID retrieves a lottery by ID, or nil if not found
func (r *LotteryRepository) GetByID(ctx context.Context, id int64) (*entities.Lottery, error) {
	query := `
		SELECT id, name, unit_cost, per_user_cap, cutoff_at, exclusion_policy, drawn, created_at
		FROM lotteries
		WHERE id = $1
	`
	var lottery entities.Lottery
	err := r.q.QueryRow(ctx, query, id).Scan(
		&lottery.ID,
		&lottery.Name,
		&lottery.UnitCost,
		&lottery.PerUserCap,
		&lottery.CutoffAt,
		&lottery.ExclusionPolicy,
		&lottery.Drawn,
		&lottery.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery %d: %w", id, err)
	}
	return &lottery, nil
}

// Create persists a new lottery and fills in its generated fields
func (r *LotteryRepository) Create(ctx context.Context, lottery *entities.Lottery) error {
	query := `
		INSERT INTO lotteries (name, unit_cost, per_user_cap, cutoff_at, exclusion_policy)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		lottery.Name,
		lottery.UnitCost,
		lottery.PerUserCap,
		lottery.CutoffAt,
		lottery.ExclusionPolicy,
	).Scan(&lottery.ID, &lottery.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lottery %q: %w", lottery.Name, err)
	}
	return nil
}

// MarkDrawn flags a lottery as drawn, closing it to further purchases
func (r *LotteryRepository) MarkDrawn(ctx context.Context, id int64) error {
	query := `UPDATE lotteries SET drawn = TRUE WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark lottery %d drawn: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lottery %d not found", id)
	}
	return nil
}
