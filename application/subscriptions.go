package application

import (
	"context"
	"fmt"

	"chatcoin/domain/events"
	"chatcoin/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RegisterEventHandlers wires the downstream evaluators to post-commit
// events. Handler failures are logged and swallowed; by the time these run
// the award is committed and nothing here may undo it.
func RegisterEventHandlers(
	subscriber interfaces.EventSubscriber,
	referral interfaces.ReferralTierEvaluator,
	achievements interfaces.AchievementEvaluator,
) error {
	return subscriber.Subscribe(events.EventTypeCoinsAwarded, func(ctx context.Context, event events.Event) error {
		awarded, ok := event.(events.CoinsAwardedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", event.Type())
		}

		if referral != nil {
			if err := referral.Evaluate(ctx, awarded.UserID, awarded.NewBalance); err != nil {
				log.WithFields(log.Fields{
					"userId": awarded.UserID,
					"error":  err,
				}).Error("Referral tier evaluation failed")
			}
		}

		if achievements != nil {
			if err := achievements.Evaluate(ctx, awarded.UserID); err != nil {
				log.WithFields(log.Fields{
					"userId": awarded.UserID,
					"error":  err,
				}).Error("Achievement evaluation failed")
			}
		}

		return nil
	})
}

// referralTierEvaluator maps balances to referral tiers. It only observes
// balance changes; tier side effects live downstream.
type referralTierEvaluator struct {
	thresholds []int64
}

// NewReferralTierEvaluator creates the default referral tier evaluator
func NewReferralTierEvaluator() interfaces.ReferralTierEvaluator {
	return &referralTierEvaluator{thresholds: []int64{100, 1000, 10000}}
}

func (e *referralTierEvaluator) Evaluate(ctx context.Context, userID string, newBalance int64) error {
	tier := 0
	for _, threshold := range e.thresholds {
		if newBalance >= threshold {
			tier++
		}
	}
	log.WithFields(log.Fields{
		"userId":  userID,
		"balance": newBalance,
		"tier":    tier,
	}).Debug("Evaluated referral tier")
	return nil
}

// achievementEvaluator is the achievement-tracking consumer
type achievementEvaluator struct{}

// NewAchievementEvaluator creates the default achievement evaluator
func NewAchievementEvaluator() interfaces.AchievementEvaluator {
	return &achievementEvaluator{}
}

func (e *achievementEvaluator) Evaluate(ctx context.Context, userID string) error {
	log.WithField("userId", userID).Debug("Evaluated achievements")
	return nil
}
