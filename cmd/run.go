package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatcoin/application"
	"chatcoin/config"
	"chatcoin/database"
	"chatcoin/domain/entities"
	"chatcoin/domain/services"
	"chatcoin/infrastructure"
	"chatcoin/infrastructure/observability"
	"chatcoin/repository"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ChatEventsSubject is the NATS subject on which upstream chat gateways
// publish raw chat events
const ChatEventsSubject = "chatcoin.chat.events"

// Run initializes and starts the service
func Run(ctx context.Context) error {
	log.Info("Starting chatcoin service...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connecting to Redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	log.Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsClient.Close()

	// Event plumbing: real publisher behind per-transaction buffering
	subjectMapper := infrastructure.NewEventSubjectMapper()
	realPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	publisherFactory := infrastructure.NewTransactionalPublisherFactory(realPublisher)
	uowFactory := repository.NewUnitOfWorkFactory(db, publisherFactory)

	// Post-commit consumers
	subscriber := infrastructure.NewNATSEventSubscriber(natsClient, subjectMapper)
	if err := application.RegisterEventHandlers(
		subscriber,
		application.NewReferralTierEvaluator(),
		application.NewAchievementEvaluator(),
	); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// Ingestion: chat gateways publish raw events on the chat subject
	eventBuffer := infrastructure.NewEventBuffer(redisClient)
	ingestService := application.NewIngestService(uowFactory, eventBuffer)
	err = natsClient.Subscribe(ChatEventsSubject, func(data []byte) error {
		var event entities.ChatEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("failed to decode chat event: %w", err)
		}
		_, err := ingestService.SubmitChatEvent(ctx, event)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to chat events: %w", err)
	}

	// Reward worker
	rewardService := services.NewRewardService(services.RewardConfig{
		BaseReward:           cfg.BaseReward,
		RewardPerEmote:       cfg.RewardPerEmote,
		MaxEmoteReward:       cfg.MaxEmoteReward,
		ContentLengthDivisor: cfg.ContentLengthDivisor,
		MaxLengthReward:      cfg.MaxLengthReward,
		SubscriberMultiplier: cfg.SubscriberMultiplier,
		StreakBonusStep:      cfg.StreakBonusStep,
	})
	worker := application.NewRewardWorker(uowFactory, eventBuffer, rewardService, services.NewBotFilter(), application.RewardWorkerConfig{
		BatchSize:          cfg.WorkerBatchSize,
		PollInterval:       cfg.WorkerPollInterval,
		IdleInterval:       cfg.WorkerIdleInterval,
		StaleLockThreshold: cfg.StaleLockThreshold,
		MaxJobAttempts:     cfg.MaxJobAttempts,
	})
	go worker.Start(ctx)

	// Balance reads behind the circuit breaker
	breaker := infrastructure.NewCircuitBreaker(
		cfg.BreakerFailureThreshold,
		cfg.BreakerBaseBackoff,
		cfg.BreakerMaxBackoff,
		database.IsTransient,
	)
	balanceReader := application.NewBalanceReader(repository.NewUserRepository(db), breaker)
	if err := serveBalanceRequests(natsClient, balanceReader); err != nil {
		return fmt.Errorf("failed to subscribe to balance requests: %w", err)
	}

	go func() {
		if err := observability.StartMetricsServer(cfg.MetricsAddr); err != nil {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	log.WithField("environment", cfg.Environment).Info("Service is running")
	<-ctx.Done()

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}

// BalanceRequestsSubject is the NATS request/reply subject for balance reads
const BalanceRequestsSubject = "chatcoin.balance.requests"

// balanceRequest is the query sent by UI backends on the balance subject
type balanceRequest struct {
	UserID string `json:"user_id"`
}

// balanceResponse is the reply. Degraded marks a possibly stale last-known
// value served while the store was unreachable.
type balanceResponse struct {
	UserID   string `json:"user_id"`
	Balance  int64  `json:"balance"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

func serveBalanceRequests(natsClient *infrastructure.NATSClient, reader *application.BalanceReader) error {
	return natsClient.SubscribeRequest(BalanceRequestsSubject, func(data []byte) ([]byte, error) {
		var req balanceRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to decode balance request: %w", err)
		}

		resp := balanceResponse{UserID: req.UserID}
		result, err := reader.GetBalance(context.Background(), req.UserID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Balance = result.Balance
			resp.Degraded = result.Degraded
		}

		return json.Marshal(resp)
	})
}
