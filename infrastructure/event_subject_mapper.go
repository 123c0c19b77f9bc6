package infrastructure

import (
	"fmt"

	"chatcoin/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event type to its NATS subject
func (m *EventSubjectMapper) MapEventTypeToSubject(eventType events.EventType) string {
	switch eventType {
	case events.EventTypeCoinsAwarded:
		return "chatcoin.coins.awarded"
	case events.EventTypeTicketsPurchased:
		return "chatcoin.tickets.purchased"
	case events.EventTypeDrawCompleted:
		return "chatcoin.draws.completed"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("chatcoin.unknown.%s", eventType)
	}
}
