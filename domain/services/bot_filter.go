package services

import (
	"strings"

	"chatcoin/domain/entities"
)

// FilterConfig holds the bot filter thresholds
type FilterConfig struct {
	// MaxDuplicates is how many identical recent messages flag a sender
	MaxDuplicates int
	// MaxLinks is how many links in one message flag it as spam
	MaxLinks int
}

// FilterVerdict is the result of evaluating one message
type FilterVerdict struct {
	Flagged bool
	Rule    string
}

// BotFilter applies simple spam heuristics against a message and the
// sender's recent message history. A flagged message still completes its
// job, with a zero delta and reason "filtered".
type BotFilter struct {
	cfg FilterConfig
}

// NewBotFilter creates a bot filter with the default thresholds
func NewBotFilter() *BotFilter {
	return &BotFilter{cfg: FilterConfig{
		MaxDuplicates: 3,
		MaxLinks:      2,
	}}
}

// NewBotFilterWithConfig creates a bot filter with explicit thresholds
func NewBotFilterWithConfig(cfg FilterConfig) *BotFilter {
	return &BotFilter{cfg: cfg}
}

// Evaluate checks a message against the sender's recent history
func (f *BotFilter) Evaluate(content string, history []entities.ChatEvent) FilterVerdict {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return FilterVerdict{Flagged: true, Rule: "empty_content"}
	}

	lower := strings.ToLower(trimmed)
	linkCount := strings.Count(lower, "http://") + strings.Count(lower, "https://")
	if linkCount >= f.cfg.MaxLinks {
		return FilterVerdict{Flagged: true, Rule: "link_spam"}
	}

	duplicates := 0
	for _, event := range history {
		if strings.EqualFold(strings.TrimSpace(event.Content), trimmed) {
			duplicates++
		}
	}
	if duplicates >= f.cfg.MaxDuplicates {
		return FilterVerdict{Flagged: true, Rule: "duplicate_spam"}
	}

	return FilterVerdict{}
}
