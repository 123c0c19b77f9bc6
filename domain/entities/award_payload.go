package entities

import (
	"errors"
	"fmt"
)

// PayloadKind discriminates the closed set of award payload variants
type PayloadKind string

const (
	PayloadKindChatMessage PayloadKind = "chat_message"
)

// AwardPayload is a tagged variant carrying the source material for a reward
// computation. Exactly one variant field matching Kind must be set; payloads
// are validated at enqueue time so the worker never sees a malformed job.
type AwardPayload struct {
	Kind        PayloadKind         `json:"kind"`
	ChatMessage *ChatMessagePayload `json:"chat_message,omitempty"`
}

// ChatMessagePayload holds the awardable parts of a single chat message
type ChatMessagePayload struct {
	Content      string   `json:"content"`
	EmoteCount   int      `json:"emote_count"`
	Badges       []string `json:"badges,omitempty"`
	IsSubscriber bool     `json:"is_subscriber"`
}

// Validate checks that the payload is a well-formed member of the closed
// variant set
func (p *AwardPayload) Validate() error {
	switch p.Kind {
	case PayloadKindChatMessage:
		if p.ChatMessage == nil {
			return errors.New("chat_message payload variant is missing")
		}
		if p.ChatMessage.EmoteCount < 0 {
			return errors.New("emote count cannot be negative")
		}
		return nil
	default:
		return fmt.Errorf("unknown payload kind %q", p.Kind)
	}
}

// NewChatMessagePayload builds a chat message award payload
func NewChatMessagePayload(content string, emoteCount int, badges []string, isSubscriber bool) AwardPayload {
	return AwardPayload{
		Kind: PayloadKindChatMessage,
		ChatMessage: &ChatMessagePayload{
			Content:      content,
			EmoteCount:   emoteCount,
			Badges:       badges,
			IsSubscriber: isSubscriber,
		},
	}
}
