package infrastructure

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chatcoin/domain/entities"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferTestEvent() entities.ChatEvent {
	return entities.ChatEvent{
		EventID:    "evt-1",
		UserID:     "viewer-1",
		Content:    "hello chat",
		ReceivedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEventBuffer_Push(t *testing.T) {
	client, mock := redismock.NewClientMock()
	buffer := NewEventBuffer(client)

	event := bufferTestEvent()
	data, err := json.Marshal(event)
	require.NoError(t, err)

	userKey := "chatcoin:events:user:viewer-1"
	mock.ExpectLPush("chatcoin:events:recent", data).SetVal(1)
	mock.ExpectLTrim("chatcoin:events:recent", 0, int64(defaultMaxRecent)-1).SetVal("OK")
	mock.ExpectLPush(userKey, data).SetVal(1)
	mock.ExpectLTrim(userKey, 0, int64(defaultMaxPerUser)-1).SetVal("OK")
	mock.ExpectExpire(userKey, defaultBufferTTL).SetVal(true)

	require.NoError(t, buffer.Push(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventBuffer_PushError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	buffer := NewEventBuffer(client)

	event := bufferTestEvent()
	data, err := json.Marshal(event)
	require.NoError(t, err)

	mock.ExpectLPush("chatcoin:events:recent", data).SetErr(assert.AnError)

	err = buffer.Push(context.Background(), event)
	assert.Error(t, err)
}

func TestEventBuffer_RecentByUser(t *testing.T) {
	client, mock := redismock.NewClientMock()
	buffer := NewEventBuffer(client)

	newer := bufferTestEvent()
	older := bufferTestEvent()
	older.EventID = "evt-0"
	newerData, _ := json.Marshal(newer)
	olderData, _ := json.Marshal(older)

	mock.ExpectLRange("chatcoin:events:user:viewer-1", 0, 9).
		SetVal([]string{string(newerData), string(olderData)})

	events, err := buffer.RecentByUser(context.Background(), "viewer-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first
	assert.Equal(t, "evt-1", events[0].EventID)
	assert.Equal(t, "evt-0", events[1].EventID)
}

func TestEventBuffer_SkipsCorruptEntries(t *testing.T) {
	client, mock := redismock.NewClientMock()
	buffer := NewEventBuffer(client)

	good, _ := json.Marshal(bufferTestEvent())
	mock.ExpectLRange("chatcoin:events:recent", 0, 4).
		SetVal([]string{"{not json", string(good)})

	events, err := buffer.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].EventID)
}
