package entities

import "time"

// ChatEvent is a validated chat event as handed over by the ingestion layer.
// It feeds both the ephemeral event buffer (UI fast path) and the durable
// award job queue.
type ChatEvent struct {
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	StreamSessionID string    `json:"stream_session_id,omitempty"`
	Content         string    `json:"content"`
	Badges          []string  `json:"badges,omitempty"`
	EmoteCount      int       `json:"emote_count"`
	IsSubscriber    bool      `json:"is_subscriber"`
	ReceivedAt      time.Time `json:"received_at"`
}
