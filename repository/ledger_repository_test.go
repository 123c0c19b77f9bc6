package repository

import (
	"context"
	"testing"

	"chatcoin/domain/entities"
	"chatcoin/domain/interfaces"
	"chatcoin/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_Append(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := userRepo.GetOrCreate(ctx, "viewer-1")
	require.NoError(t, err)

	t.Run("appends entry", func(t *testing.T) {
		entry := &entities.LedgerEntry{
			EventID: "evt-1",
			UserID:  "viewer-1",
			Delta:   5,
			Reason:  entities.LedgerReasonChatReward,
		}
		require.NoError(t, repo.Append(ctx, entry))
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	t.Run("duplicate event ID returns ErrDuplicateEvent", func(t *testing.T) {
		entry := &entities.LedgerEntry{
			EventID: "evt-dup",
			UserID:  "viewer-1",
			Delta:   5,
			Reason:  entities.LedgerReasonChatReward,
		}
		require.NoError(t, repo.Append(ctx, entry))

		err := repo.Append(ctx, &entities.LedgerEntry{
			EventID: "evt-dup",
			UserID:  "viewer-1",
			Delta:   5,
			Reason:  entities.LedgerReasonChatReward,
		})
		assert.ErrorIs(t, err, interfaces.ErrDuplicateEvent)

		// The duplicate wrote nothing
		sum, err := repo.SumDeltas(ctx, "viewer-1")
		require.NoError(t, err)
		assert.Equal(t, int64(10), sum)
	})
}

func TestLedgerRepository_SumDeltas(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := userRepo.GetOrCreate(ctx, "viewer-2")
	require.NoError(t, err)

	t.Run("empty ledger sums to zero", func(t *testing.T) {
		sum, err := repo.SumDeltas(ctx, "viewer-2")
		require.NoError(t, err)
		assert.Equal(t, int64(0), sum)
	})

	t.Run("mixed credits and debits", func(t *testing.T) {
		entries := []*entities.LedgerEntry{
			{EventID: "sum-1", UserID: "viewer-2", Delta: 100, Reason: entities.LedgerReasonChatReward},
			{EventID: "sum-2", UserID: "viewer-2", Delta: 0, Reason: entities.LedgerReasonFiltered},
			{EventID: "sum-3", UserID: "viewer-2", Delta: -60, Reason: entities.LedgerReasonTicketPurchase},
		}
		for _, entry := range entries {
			require.NoError(t, repo.Append(ctx, entry))
		}

		sum, err := repo.SumDeltas(ctx, "viewer-2")
		require.NoError(t, err)
		assert.Equal(t, int64(40), sum)
	})
}

func TestLedgerRepository_GetByUser(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := userRepo.GetOrCreate(ctx, "viewer-3")
	require.NoError(t, err)

	for i, eventID := range []string{"hist-1", "hist-2", "hist-3"} {
		require.NoError(t, repo.Append(ctx, &entities.LedgerEntry{
			EventID: eventID,
			UserID:  "viewer-3",
			Delta:   int64(i + 1),
			Reason:  entities.LedgerReasonChatReward,
		}))
	}

	entries, err := repo.GetByUser(ctx, "viewer-3", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "hist-3", entries[0].EventID)
	assert.Equal(t, "hist-2", entries[1].EventID)
}
