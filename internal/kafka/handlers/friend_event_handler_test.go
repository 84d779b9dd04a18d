package kafkahandlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appkafka "social-go/internal/kafka"
)

type fakeCounter struct {
	counts map[uint]int64
}

func (c *fakeCounter) Incr(ctx context.Context, userID uint) error {
	if c.counts == nil {
		c.counts = make(map[uint]int64)
	}
	c.counts[userID]++
	return nil
}

func (c *fakeCounter) Decr(ctx context.Context, userID uint) error {
	if c.counts[userID] > 0 {
		c.counts[userID]--
	}
	return nil
}

func (c *fakeCounter) Get(ctx context.Context, userID uint) (int64, error) {
	return c.counts[userID], nil
}

func eventMessage(t *testing.T, eventType string, receiverID uint) *kafka.Message {
	t.Helper()
	payload, err := json.Marshal(appkafka.FriendEvent{
		Type:       eventType,
		RequestID:  1,
		SenderID:   10,
		ReceiverID: receiverID,
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)
	return &kafka.Message{Value: payload}
}

func TestHandleFriendEvent_CreatedIncrementsReceiver(t *testing.T) {
	counter := &fakeCounter{}
	logic := NewFriendEventConsumerLogic(counter)

	err := logic.HandleFriendEvent(context.Background(), eventMessage(t, appkafka.FriendEventRequestCreated, 20))
	require.NoError(t, err)

	n, err := counter.Get(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHandleFriendEvent_ResolutionDecrementsReceiver(t *testing.T) {
	counter := &fakeCounter{}
	logic := NewFriendEventConsumerLogic(counter)

	require.NoError(t, logic.HandleFriendEvent(context.Background(), eventMessage(t, appkafka.FriendEventRequestCreated, 20)))
	require.NoError(t, logic.HandleFriendEvent(context.Background(), eventMessage(t, appkafka.FriendEventRequestCreated, 20)))
	require.NoError(t, logic.HandleFriendEvent(context.Background(), eventMessage(t, appkafka.FriendEventRequestAccepted, 20)))
	require.NoError(t, logic.HandleFriendEvent(context.Background(), eventMessage(t, appkafka.FriendEventRequestRejected, 20)))

	n, err := counter.Get(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestHandleFriendEvent_MalformedMessageCommitted(t *testing.T) {
	counter := &fakeCounter{}
	logic := NewFriendEventConsumerLogic(counter)

	err := logic.HandleFriendEvent(context.Background(), &kafka.Message{Value: []byte("{not json")})
	assert.NoError(t, err)
	assert.Empty(t, counter.counts)
}

func TestHandleFriendEvent_UnknownTypeSkipped(t *testing.T) {
	counter := &fakeCounter{}
	logic := NewFriendEventConsumerLogic(counter)

	err := logic.HandleFriendEvent(context.Background(), eventMessage(t, "request.withdrawn", 20))
	assert.NoError(t, err)
	assert.Empty(t, counter.counts)
}
