package services

import (
	"unicode/utf8"

	"chatcoin/domain/entities"
)

// RewardConfig holds the reward rule parameters
type RewardConfig struct {
	BaseReward           int64
	RewardPerEmote       int64
	MaxEmoteReward       int64
	ContentLengthDivisor int64
	MaxLengthReward      int64
	SubscriberMultiplier int64 // Percent, 100 = no bonus
	StreakBonusStep      int   // Messages per streak bonus coin, 0 disables
}

// RewardService contains pure business logic for computing coin deltas
type RewardService struct {
	cfg RewardConfig
}

// NewRewardService creates a new RewardService
func NewRewardService(cfg RewardConfig) *RewardService {
	return &RewardService{cfg: cfg}
}

// ComputeDelta computes the coin delta for one chat message. The result is
// deterministic for a given payload and streak length.
func (s *RewardService) ComputeDelta(payload *entities.ChatMessagePayload, streakLength int) int64 {
	delta := s.cfg.BaseReward

	if s.cfg.ContentLengthDivisor > 0 {
		lengthReward := int64(utf8.RuneCountInString(payload.Content)) / s.cfg.ContentLengthDivisor
		if lengthReward > s.cfg.MaxLengthReward {
			lengthReward = s.cfg.MaxLengthReward
		}
		delta += lengthReward
	}

	emoteReward := int64(payload.EmoteCount) * s.cfg.RewardPerEmote
	if emoteReward > s.cfg.MaxEmoteReward {
		emoteReward = s.cfg.MaxEmoteReward
	}
	delta += emoteReward

	if s.cfg.StreakBonusStep > 0 {
		delta += int64(streakLength / s.cfg.StreakBonusStep)
	}

	if payload.IsSubscriber && s.cfg.SubscriberMultiplier > 0 {
		delta = delta * s.cfg.SubscriberMultiplier / 100
	}

	return delta
}

// SessionStreak counts how many recent events belong to the given stream
// session, used for the streak bonus
func SessionStreak(history []entities.ChatEvent, streamSessionID string) int {
	if streamSessionID == "" {
		return 0
	}
	streak := 0
	for _, event := range history {
		if event.StreamSessionID == streamSessionID {
			streak++
		}
	}
	return streak
}
