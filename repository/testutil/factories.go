package testutil

import (
	"fmt"
	"time"

	"chatcoin/domain/entities"
)

// CreateTestLottery builds an open lottery with sensible defaults
func CreateTestLottery(name string) *entities.Lottery {
	return &entities.Lottery{
		Name:            name,
		UnitCost:        20,
		PerUserCap:      100,
		CutoffAt:        time.Now().Add(time.Hour),
		ExclusionPolicy: entities.ExclusionSingleWin,
	}
}

// CreateTestAwardJob builds a pending chat message award job
func CreateTestAwardJob(eventID, userID, content string) *entities.AwardJob {
	return &entities.AwardJob{
		EventID: eventID,
		UserID:  userID,
		Payload: entities.NewChatMessagePayload(content, 0, nil, false),
	}
}

// CreateTestChatEvent builds a chat event with a generated event ID suffix
func CreateTestChatEvent(userID, content string, seq int) entities.ChatEvent {
	return entities.ChatEvent{
		EventID:    fmt.Sprintf("evt-%s-%d", userID, seq),
		UserID:     userID,
		Content:    content,
		ReceivedAt: time.Now().UTC(),
	}
}
