package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ReturnsTestConfigOverride(t *testing.T) {
	defer ResetConfig()

	override := NewTestConfig()
	override.WorkerBatchSize = 99
	SetTestConfig(override)

	cfg := Get()
	assert.Equal(t, 99, cfg.WorkerBatchSize)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.WorkerBatchSize)
	assert.Equal(t, 2*time.Second, cfg.WorkerPollInterval)
	assert.Equal(t, 5*time.Minute, cfg.StaleLockThreshold)
	assert.Equal(t, 5, cfg.MaxJobAttempts)
	assert.Equal(t, int64(200), cfg.SubscriberMultiplier)
	assert.Equal(t, 5, cfg.BreakerFailureThreshold)
	assert.Equal(t, time.Second, cfg.BreakerBaseBackoff)
	assert.Equal(t, 30*time.Second, cfg.BreakerMaxBackoff)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("WORKER_BATCH_SIZE", "64")
	t.Setenv("STALE_LOCK_THRESHOLD", "10m")
	t.Setenv("BASE_REWARD", "2")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.WorkerBatchSize)
	assert.Equal(t, 10*time.Minute, cfg.StaleLockThreshold)
	assert.Equal(t, int64(2), cfg.BaseReward)
}

func TestLoad_RequiresDatabaseURLOutsideTest(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "")

	_, err := load()
	assert.Error(t, err)
}
