package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatcoin/infrastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("connection timed out")

func newTestBreaker(threshold int) *infrastructure.CircuitBreaker {
	isTransient := func(err error) bool { return errors.Is(err, errStoreDown) }
	return infrastructure.NewCircuitBreaker(threshold, time.Second, 30*time.Second, isTransient)
}

func TestBalanceReader_GetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy store", func(t *testing.T) {
		s := newMemState()
		s.users["viewer-1"] = 250

		reader := NewBalanceReader(&memUserRepo{s: s}, newTestBreaker(3))
		result, err := reader.GetBalance(ctx, "viewer-1")
		require.NoError(t, err)

		assert.Equal(t, int64(250), result.Balance)
		assert.False(t, result.Degraded)
	})

	t.Run("unknown user has zero balance", func(t *testing.T) {
		s := newMemState()
		reader := NewBalanceReader(&memUserRepo{s: s}, newTestBreaker(3))

		result, err := reader.GetBalance(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Balance)
		assert.False(t, result.Degraded)
	})

	t.Run("serves last known balance while store is down", func(t *testing.T) {
		s := newMemState()
		s.users["viewer-2"] = 100

		reader := NewBalanceReader(&memUserRepo{s: s}, newTestBreaker(3))
		_, err := reader.GetBalance(ctx, "viewer-2")
		require.NoError(t, err)

		s.userErr = errStoreDown

		result, err := reader.GetBalance(ctx, "viewer-2")
		require.NoError(t, err)
		assert.Equal(t, int64(100), result.Balance)
		assert.True(t, result.Degraded)
	})

	t.Run("cache miss during outage serves a flagged zero", func(t *testing.T) {
		s := newMemState()
		s.userErr = errStoreDown

		reader := NewBalanceReader(&memUserRepo{s: s}, newTestBreaker(3))
		result, err := reader.GetBalance(ctx, "viewer-3")
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Balance)
		assert.True(t, result.Degraded)
	})

	t.Run("never seen user while the breaker is open", func(t *testing.T) {
		s := newMemState()
		s.userErr = errStoreDown

		breaker := newTestBreaker(2)
		reader := NewBalanceReader(&memUserRepo{s: s}, breaker)
		for i := 0; i < 2; i++ {
			_, err := reader.GetBalance(ctx, "viewer-5")
			require.NoError(t, err)
		}
		require.Equal(t, infrastructure.BreakerOpen, breaker.State())

		result, err := reader.GetBalance(ctx, "never-seen")
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Balance)
		assert.True(t, result.Degraded)
	})

	t.Run("open breaker fails fast with degraded response", func(t *testing.T) {
		s := newMemState()
		s.users["viewer-4"] = 70

		breaker := newTestBreaker(2)
		reader := NewBalanceReader(&memUserRepo{s: s}, breaker)

		_, err := reader.GetBalance(ctx, "viewer-4")
		require.NoError(t, err)

		s.userErr = errStoreDown
		for i := 0; i < 2; i++ {
			result, err := reader.GetBalance(ctx, "viewer-4")
			require.NoError(t, err)
			assert.True(t, result.Degraded)
		}
		require.Equal(t, infrastructure.BreakerOpen, breaker.State())

		// The store is no longer hit while the breaker is open, yet cached
		// reads still succeed
		result, err := reader.GetBalance(ctx, "viewer-4")
		require.NoError(t, err)
		assert.Equal(t, int64(70), result.Balance)
		assert.True(t, result.Degraded)
	})
}
