package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chatcoin/database"
	"chatcoin/domain/entities"
	"chatcoin/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// DrawRepository implements the DrawRepository interface
type DrawRepository struct {
	q Queryable
}

// NewDrawRepository creates a new draw repository backed by the pool
func NewDrawRepository(db *database.DB) interfaces.DrawRepository {
	return &DrawRepository{q: db.Pool}
}

// newDrawRepository creates a new draw repository bound to a transaction
func newDrawRepository(tx Queryable) interfaces.DrawRepository {
	return &DrawRepository{q: tx}
}

// Record persists a draw record. The lottery_id primary key makes a second
// record for the same lottery a constraint violation, keeping the first
// record immutable.
func (r *DrawRepository) Record(ctx context.Context, record *entities.DrawRecord) error {
	snapshotJSON, err := json.Marshal(record.EntrySnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal entry snapshot: %w", err)
	}

	query := `
		INSERT INTO draw_records (lottery_id, seed, drawn_at, winner_entry_ids, entry_snapshot)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.q.Exec(ctx, query,
		record.LotteryID,
		record.Seed,
		record.DrawnAt,
		record.WinnerEntryIDs,
		snapshotJSON,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("draw record for lottery %d already exists", record.LotteryID)
		}
		return fmt.Errorf("failed to record draw for lottery %d: %w", record.LotteryID, err)
	}
	return nil
}

// GetByLotteryID retrieves the draw record for a lottery, or nil
func (r *DrawRepository) GetByLotteryID(ctx context.Context, lotteryID int64) (*entities.DrawRecord, error) {
	query := `
		SELECT lottery_id, seed, drawn_at, winner_entry_ids, entry_snapshot
		FROM draw_records
		WHERE lottery_id = $1
	`
	var record entities.DrawRecord
	var snapshotJSON []byte
	err := r.q.QueryRow(ctx, query, lotteryID).Scan(
		&record.LotteryID,
		&record.Seed,
		&record.DrawnAt,
		&record.WinnerEntryIDs,
		&snapshotJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw record for lottery %d: %w", lotteryID, err)
	}
	if err := json.Unmarshal(snapshotJSON, &record.EntrySnapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry snapshot for lottery %d: %w", lotteryID, err)
	}
	return &record, nil
}
