package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"
)

// NATSEventSubscriber implements the EventSubscriber interface, decoding
// envelopes from NATS back into typed domain events
type NATSEventSubscriber struct {
	natsClient    *NATSClient
	subjectMapper *EventSubjectMapper
}

// NewNATSEventSubscriber creates a new NATS event subscriber
func NewNATSEventSubscriber(natsClient *NATSClient, subjectMapper *EventSubjectMapper) interfaces.EventSubscriber {
	return &NATSEventSubscriber{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
	}
}

// Subscribe registers a handler for a domain event type
func (s *NATSEventSubscriber) Subscribe(eventType events.EventType, handler func(ctx context.Context, event events.Event) error) error {
	subject := s.subjectMapper.MapEventTypeToSubject(eventType)

	return s.natsClient.Subscribe(subject, func(data []byte) error {
		var envelope EventEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("failed to unmarshal event envelope: %w", err)
		}

		event, err := decodeEvent(eventType, envelope.Payload)
		if err != nil {
			return err
		}

		return handler(context.Background(), event)
	})
}

// decodeEvent unmarshals an envelope payload into its concrete event type
func decodeEvent(eventType events.EventType, payload []byte) (events.Event, error) {
	switch eventType {
	case events.EventTypeCoinsAwarded:
		var event events.CoinsAwardedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode coins awarded event: %w", err)
		}
		return event, nil
	case events.EventTypeTicketsPurchased:
		var event events.TicketsPurchasedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode tickets purchased event: %w", err)
		}
		return event, nil
	case events.EventTypeDrawCompleted:
		var event events.DrawCompletedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode draw completed event: %w", err)
		}
		return event, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}
