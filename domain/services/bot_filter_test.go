package services

import (
	"testing"

	"chatcoin/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestBotFilter_Evaluate(t *testing.T) {
	filter := NewBotFilter()

	t.Run("normal message passes", func(t *testing.T) {
		verdict := filter.Evaluate("great stream today", nil)
		assert.False(t, verdict.Flagged)
	})

	t.Run("empty content flagged", func(t *testing.T) {
		verdict := filter.Evaluate("   ", nil)
		assert.True(t, verdict.Flagged)
		assert.Equal(t, "empty_content", verdict.Rule)
	})

	t.Run("link spam flagged", func(t *testing.T) {
		verdict := filter.Evaluate("buy now https://spam.example http://more.example", nil)
		assert.True(t, verdict.Flagged)
		assert.Equal(t, "link_spam", verdict.Rule)
	})

	t.Run("single link passes", func(t *testing.T) {
		verdict := filter.Evaluate("check this clip https://clips.example/abc", nil)
		assert.False(t, verdict.Flagged)
	})

	t.Run("duplicate spam flagged against history", func(t *testing.T) {
		history := []entities.ChatEvent{
			{Content: "GG"},
			{Content: "gg "},
			{Content: " gg"},
		}
		verdict := filter.Evaluate("gg", history)
		assert.True(t, verdict.Flagged)
		assert.Equal(t, "duplicate_spam", verdict.Rule)
	})

	t.Run("few repeats pass", func(t *testing.T) {
		history := []entities.ChatEvent{
			{Content: "gg"},
			{Content: "nice one"},
		}
		verdict := filter.Evaluate("gg", history)
		assert.False(t, verdict.Flagged)
	})
}

func TestBotFilter_CustomThresholds(t *testing.T) {
	filter := NewBotFilterWithConfig(FilterConfig{MaxDuplicates: 1, MaxLinks: 1})

	verdict := filter.Evaluate("see https://one.example", nil)
	assert.True(t, verdict.Flagged)
	assert.Equal(t, "link_spam", verdict.Rule)

	verdict = filter.Evaluate("hello", []entities.ChatEvent{{Content: "hello"}})
	assert.True(t, verdict.Flagged)
	assert.Equal(t, "duplicate_spam", verdict.Rule)
}
