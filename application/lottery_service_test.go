package application

import (
	"context"
	"testing"
	"time"

	"chatcoin/config"
	"chatcoin/domain/entities"
	"chatcoin/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotteryService_CreateLottery(t *testing.T) {
	ctx := context.Background()
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	newService := func(s *memState) *LotteryService {
		return NewLotteryService(&fakeUowFactory{s: s}, 20*time.Second)
	}

	newLottery := func() *entities.Lottery {
		return &entities.Lottery{
			Name:            "weekly skin",
			UnitCost:        20,
			PerUserCap:      50,
			CutoffAt:        time.Now().Add(time.Hour),
			ExclusionPolicy: entities.ExclusionSingleWin,
		}
	}

	t.Run("persists the lottery", func(t *testing.T) {
		s := newMemState()
		lottery := newLottery()

		require.NoError(t, newService(s).CreateLottery(ctx, lottery))
		require.Len(t, s.lotteries, 1)
		assert.Equal(t, int64(50), s.lotteries[lottery.ID].PerUserCap)
	})

	t.Run("zero per-user cap takes the configured default", func(t *testing.T) {
		s := newMemState()
		lottery := newLottery()
		lottery.PerUserCap = 0

		require.NoError(t, newService(s).CreateLottery(ctx, lottery))
		assert.Equal(t, config.Get().PerUserTicketCap, lottery.PerUserCap)
	})

	t.Run("negative per-user cap is rejected", func(t *testing.T) {
		s := newMemState()
		lottery := newLottery()
		lottery.PerUserCap = -1

		err := newService(s).CreateLottery(ctx, lottery)
		assert.True(t, services.IsValidationError(err))
		assert.Empty(t, s.lotteries)
	})

	t.Run("non-positive unit cost is rejected", func(t *testing.T) {
		s := newMemState()
		lottery := newLottery()
		lottery.UnitCost = 0

		err := newService(s).CreateLottery(ctx, lottery)
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("unknown exclusion policy is rejected", func(t *testing.T) {
		s := newMemState()
		lottery := newLottery()
		lottery.ExclusionPolicy = "best_effort"

		err := newService(s).CreateLottery(ctx, lottery)
		assert.True(t, services.IsValidationError(err))
	})
}
