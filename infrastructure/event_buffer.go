package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatcoin/domain/entities"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	recentEventsKey   = "chatcoin:events:recent"
	userEventsKeyFmt  = "chatcoin:events:user:%s"
	defaultMaxRecent  = 200
	defaultMaxPerUser = 50
	defaultBufferTTL  = 15 * time.Minute
)

// EventBuffer is the ephemeral low-latency store of recent chat events. It
// serves UI fast-path reads before durable persistence and supplies the
// reward worker with a sender's recent message history. Loss is acceptable;
// the award job queue is the durable path.
type EventBuffer struct {
	client     *redis.Client
	maxRecent  int64
	maxPerUser int64
	ttl        time.Duration
}

// NewEventBuffer creates an event buffer with default retention
func NewEventBuffer(client *redis.Client) *EventBuffer {
	return &EventBuffer{
		client:     client,
		maxRecent:  defaultMaxRecent,
		maxPerUser: defaultMaxPerUser,
		ttl:        defaultBufferTTL,
	}
}

// Push records a chat event in the global and per-user recent lists
func (b *EventBuffer) Push(ctx context.Context, event entities.ChatEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event %s: %w", event.EventID, err)
	}

	userKey := fmt.Sprintf(userEventsKeyFmt, event.UserID)

	if err := b.client.LPush(ctx, recentEventsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push event %s to recent list: %w", event.EventID, err)
	}
	if err := b.client.LTrim(ctx, recentEventsKey, 0, b.maxRecent-1).Err(); err != nil {
		return fmt.Errorf("failed to trim recent list: %w", err)
	}

	if err := b.client.LPush(ctx, userKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push event %s to user list: %w", event.EventID, err)
	}
	if err := b.client.LTrim(ctx, userKey, 0, b.maxPerUser-1).Err(); err != nil {
		return fmt.Errorf("failed to trim user list: %w", err)
	}
	if err := b.client.Expire(ctx, userKey, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set TTL on user list: %w", err)
	}

	return nil
}

// Recent returns the most recent chat events, newest first
func (b *EventBuffer) Recent(ctx context.Context, limit int) ([]entities.ChatEvent, error) {
	return b.readList(ctx, recentEventsKey, limit)
}

// RecentByUser returns a user's most recent chat events, newest first
func (b *EventBuffer) RecentByUser(ctx context.Context, userID string, limit int) ([]entities.ChatEvent, error) {
	return b.readList(ctx, fmt.Sprintf(userEventsKeyFmt, userID), limit)
}

func (b *EventBuffer) readList(ctx context.Context, key string, limit int) ([]entities.ChatEvent, error) {
	raw, err := b.client.LRange(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read event list %s: %w", key, err)
	}

	events := make([]entities.ChatEvent, 0, len(raw))
	for _, item := range raw {
		var event entities.ChatEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			// A corrupt buffer entry is not worth failing a read over
			log.WithError(err).Warn("Skipping undecodable event buffer entry")
			continue
		}
		events = append(events, event)
	}

	return events, nil
}
