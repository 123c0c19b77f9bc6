package infrastructure

import (
	"context"
	"testing"

	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The factory must satisfy the domain contract consumed by the unit of work
var _ interfaces.TransactionalPublisherFactory = (*transactionalPublisherFactory)(nil)

type capturePublisher struct {
	published []events.Event
}

func (p *capturePublisher) Publish(event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func TestNATSTransactionalPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("holds events until flush", func(t *testing.T) {
		real := &capturePublisher{}
		publisher := NewNATSTransactionalPublisher(real)

		require.NoError(t, publisher.Publish(events.CoinsAwardedEvent{UserID: "viewer-1", Delta: 5}))
		require.NoError(t, publisher.Publish(events.CoinsAwardedEvent{UserID: "viewer-2", Delta: 3}))
		assert.Empty(t, real.published)

		require.NoError(t, publisher.Flush(ctx))
		assert.Len(t, real.published, 2)
	})

	t.Run("discard drops pending events", func(t *testing.T) {
		real := &capturePublisher{}
		publisher := NewNATSTransactionalPublisher(real)

		require.NoError(t, publisher.Publish(events.CoinsAwardedEvent{UserID: "viewer-1", Delta: 5}))
		publisher.Discard()

		require.NoError(t, publisher.Flush(ctx))
		assert.Empty(t, real.published)
	})

	t.Run("flush clears the pending queue", func(t *testing.T) {
		real := &capturePublisher{}
		publisher := NewNATSTransactionalPublisher(real)

		require.NoError(t, publisher.Publish(events.CoinsAwardedEvent{UserID: "viewer-1", Delta: 5}))
		require.NoError(t, publisher.Flush(ctx))
		require.NoError(t, publisher.Flush(ctx))

		assert.Len(t, real.published, 1)
	})
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	assert.Equal(t, "chatcoin.coins.awarded", mapper.MapEventTypeToSubject(events.EventTypeCoinsAwarded))
	assert.Equal(t, "chatcoin.tickets.purchased", mapper.MapEventTypeToSubject(events.EventTypeTicketsPurchased))
	assert.Equal(t, "chatcoin.draws.completed", mapper.MapEventTypeToSubject(events.EventTypeDrawCompleted))
	assert.Equal(t, "chatcoin.unknown.mystery", mapper.MapEventTypeToSubject(events.EventType("mystery")))
}
