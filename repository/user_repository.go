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

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository backed by the pool
func NewUserRepository(db *database.DB) interfaces.UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepository creates a new user repository bound to a transaction
func newUserRepository(tx Queryable) interfaces.UserRepository {
	return &UserRepository{q: tx}
}

// GetByUserID retrieves a user by their ID
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*entities.User, error) {
	query := `
		SELECT user_id, balance, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`
	return r.scanUser(r.q.QueryRow(ctx, query, userID), userID)
}

// GetByUserIDForUpdate retrieves a user holding the row lock until the
// surrounding transaction ends
func (r *UserRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*entities.User, error) {
	query := `
		SELECT user_id, balance, created_at, updated_at
		FROM users
		WHERE user_id = $1
		FOR UPDATE
	`
	return r.scanUser(r.q.QueryRow(ctx, query, userID), userID)
}

// GetOrCreate retrieves a user, creating the row with a zero balance if absent
func (r *UserRepository) GetOrCreate(ctx context.Context, userID string) (*entities.User, error) {
	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = users.updated_at
		RETURNING user_id, balance, created_at, updated_at
	`
	user, err := r.scanUser(r.q.QueryRow(ctx, query, userID), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("failed to get or create user %s", userID)
	}
	return user, nil
}

// UpdateBalance sets a user's balance to the given value. The balance column
// carries a CHECK (balance >= 0), so a negative value is rejected by the
// store even if a caller miscomputes.
func (r *UserRepository) UpdateBalance(ctx context.Context, userID string, newBalance int64) error {
	query := `
		UPDATE users
		SET balance = $2, updated_at = now()
		WHERE user_id = $1
	`
	tag, err := r.q.Exec(ctx, query, userID, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row, userID string) (*entities.User, error) {
	var user entities.User
	err := row.Scan(&user.UserID, &user.Balance, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return &user, nil
}
