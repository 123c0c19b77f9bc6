package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"chatcoin/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration (event buffer)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Metrics configuration
	MetricsAddr string // Listen address for the Prometheus /metrics endpoint

	// Reward worker configuration
	WorkerBatchSize    int
	WorkerPollInterval time.Duration
	WorkerIdleInterval time.Duration
	StaleLockThreshold time.Duration
	MaxJobAttempts     int

	// Reward rule configuration
	BaseReward           int64
	RewardPerEmote       int64
	MaxEmoteReward       int64
	ContentLengthDivisor int64
	MaxLengthReward      int64
	SubscriberMultiplier int64 // Percent, 100 = no bonus
	StreakBonusStep      int   // Messages per streak bonus coin

	// Circuit breaker configuration
	BreakerFailureThreshold int
	BreakerBaseBackoff      time.Duration
	BreakerMaxBackoff       time.Duration

	// Purchase configuration
	PerUserTicketCap    int64
	PurchaseLockTimeout time.Duration

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Redis
		RedisAddr:     getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntWithDefault("REDIS_DB", 0),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Metrics
		MetricsAddr: getEnvWithDefault("METRICS_ADDR", ":9090"),

		// Reward worker defaults
		WorkerBatchSize:    getEnvIntWithDefault("WORKER_BATCH_SIZE", 32),
		WorkerPollInterval: getEnvDurationWithDefault("WORKER_POLL_INTERVAL", 2*time.Second),
		WorkerIdleInterval: getEnvDurationWithDefault("WORKER_IDLE_INTERVAL", 5*time.Second),
		StaleLockThreshold: getEnvDurationWithDefault("STALE_LOCK_THRESHOLD", 5*time.Minute),
		MaxJobAttempts:     getEnvIntWithDefault("MAX_JOB_ATTEMPTS", 5),

		// Reward rules
		BaseReward:           getEnvInt64WithDefault("BASE_REWARD", 1),
		RewardPerEmote:       getEnvInt64WithDefault("REWARD_PER_EMOTE", 1),
		MaxEmoteReward:       getEnvInt64WithDefault("MAX_EMOTE_REWARD", 5),
		ContentLengthDivisor: getEnvInt64WithDefault("CONTENT_LENGTH_DIVISOR", 20),
		MaxLengthReward:      getEnvInt64WithDefault("MAX_LENGTH_REWARD", 5),
		SubscriberMultiplier: getEnvInt64WithDefault("SUBSCRIBER_MULTIPLIER", 200),
		StreakBonusStep:      getEnvIntWithDefault("STREAK_BONUS_STEP", 5),

		// Circuit breaker
		BreakerFailureThreshold: getEnvIntWithDefault("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerBaseBackoff:      getEnvDurationWithDefault("BREAKER_BASE_BACKOFF", 1*time.Second),
		BreakerMaxBackoff:       getEnvDurationWithDefault("BREAKER_MAX_BACKOFF", 30*time.Second),

		// Purchases
		PerUserTicketCap:    getEnvInt64WithDefault("PER_USER_TICKET_CAP", 100),
		PurchaseLockTimeout: getEnvDurationWithDefault("PURCHASE_LOCK_TIMEOUT", 20*time.Second),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		WorkerBatchSize:         8,
		WorkerPollInterval:      10 * time.Millisecond,
		WorkerIdleInterval:      20 * time.Millisecond,
		StaleLockThreshold:      5 * time.Minute,
		MaxJobAttempts:          3,
		BaseReward:              1,
		RewardPerEmote:          1,
		MaxEmoteReward:          5,
		ContentLengthDivisor:    20,
		MaxLengthReward:         5,
		SubscriberMultiplier:    200,
		StreakBonusStep:         5,
		BreakerFailureThreshold: 3,
		BreakerBaseBackoff:      time.Second,
		BreakerMaxBackoff:       30 * time.Second,
		PerUserTicketCap:        100,
		PurchaseLockTimeout:     20 * time.Second,
	}
}
