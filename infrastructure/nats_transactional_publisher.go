package infrastructure

import (
	"context"

	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// NATSTransactionalPublisher holds events until flush, then publishes to
// NATS. A unit of work flushes after commit and discards on rollback, so
// downstream consumers only ever see events whose database effects are
// durable.
type NATSTransactionalPublisher struct {
	realPublisher interfaces.EventPublisher
	pending       []events.Event
}

// NewNATSTransactionalPublisher creates a new transactional publisher
func NewNATSTransactionalPublisher(realPublisher interfaces.EventPublisher) *NATSTransactionalPublisher {
	return &NATSTransactionalPublisher{
		realPublisher: realPublisher,
		pending:       make([]events.Event, 0),
	}
}

// Publish stores an event in the pending queue without immediately publishing
func (p *NATSTransactionalPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes all pending events. Called after a successful commit.
func (p *NATSTransactionalPublisher) Flush(ctx context.Context) error {
	for _, event := range p.pending {
		if err := p.realPublisher.Publish(event); err != nil {
			// Partial failure must not block the remaining events
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}
	p.pending = p.pending[:0]
	return nil
}

// Discard clears all pending events without publishing them. Called on
// rollback.
func (p *NATSTransactionalPublisher) Discard() {
	if len(p.pending) > 0 {
		log.WithField("discarded", len(p.pending)).Debug("Discarding pending events")
	}
	p.pending = p.pending[:0]
}

// transactionalPublisherFactory creates one transactional publisher per
// unit of work
type transactionalPublisherFactory struct {
	realPublisher interfaces.EventPublisher
}

// NewTransactionalPublisherFactory creates a factory producing transactional
// publishers backed by the given real publisher
func NewTransactionalPublisherFactory(realPublisher interfaces.EventPublisher) interfaces.TransactionalPublisherFactory {
	return &transactionalPublisherFactory{realPublisher: realPublisher}
}

func (f *transactionalPublisherFactory) Create() interfaces.TransactionalEventPublisher {
	return NewNATSTransactionalPublisher(f.realPublisher)
}
