package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardPayload_Validate(t *testing.T) {
	t.Run("valid chat message payload", func(t *testing.T) {
		payload := NewChatMessagePayload("hello", 2, []string{"vip"}, true)
		assert.NoError(t, payload.Validate())
	})

	t.Run("kind without matching variant", func(t *testing.T) {
		payload := AwardPayload{Kind: PayloadKindChatMessage}
		assert.Error(t, payload.Validate())
	})

	t.Run("unknown kind", func(t *testing.T) {
		payload := AwardPayload{Kind: "poll_vote"}
		assert.Error(t, payload.Validate())
	})

	t.Run("negative emote count", func(t *testing.T) {
		payload := NewChatMessagePayload("hello", -1, nil, false)
		assert.Error(t, payload.Validate())
	})
}

func TestAwardJob_IsStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := 5 * time.Minute

	t.Run("processing past threshold is stale", func(t *testing.T) {
		lockedAt := now.Add(-10 * time.Minute)
		job := &AwardJob{Status: AwardJobStatusProcessing, LockedAt: &lockedAt}
		assert.True(t, job.IsStale(threshold, now))
	})

	t.Run("fresh lock is not stale", func(t *testing.T) {
		lockedAt := now.Add(-time.Minute)
		job := &AwardJob{Status: AwardJobStatusProcessing, LockedAt: &lockedAt}
		assert.False(t, job.IsStale(threshold, now))
	})

	t.Run("pending is never stale", func(t *testing.T) {
		job := &AwardJob{Status: AwardJobStatusPending}
		assert.False(t, job.IsStale(threshold, now))
	})
}

func TestLottery_IsOpen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("open before cutoff", func(t *testing.T) {
		lottery := &Lottery{CutoffAt: now.Add(time.Hour)}
		assert.True(t, lottery.IsOpen(now))
	})

	t.Run("closed at cutoff", func(t *testing.T) {
		lottery := &Lottery{CutoffAt: now}
		assert.False(t, lottery.IsOpen(now))
	})

	t.Run("closed once drawn", func(t *testing.T) {
		lottery := &Lottery{CutoffAt: now.Add(time.Hour), Drawn: true}
		assert.False(t, lottery.IsOpen(now))
	})
}

func TestAwardJob_IsTerminal(t *testing.T) {
	require.True(t, (&AwardJob{Status: AwardJobStatusCompleted}).IsTerminal())
	require.True(t, (&AwardJob{Status: AwardJobStatusFailed}).IsTerminal())
	require.False(t, (&AwardJob{Status: AwardJobStatusPending}).IsTerminal())
	require.False(t, (&AwardJob{Status: AwardJobStatusProcessing}).IsTerminal())
}
