package kafkahandlers

import (
	"context"
	"encoding/json"
	"log"

	appkafka "social-go/internal/kafka"
	appredis "social-go/internal/redis"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// FriendEventConsumerLogic keeps the denormalized pending-request counters in
// step with the friend-event stream. A created request increments the
// receiver's counter; any resolution decrements it. The counters are advisory
// badge counts, so a lost event degrades to a stale number, never to wrong
// relationship state.
type FriendEventConsumerLogic struct {
	counter appredis.PendingCounter
}

// NewFriendEventConsumerLogic creates the consumer logic over the given
// counter store.
func NewFriendEventConsumerLogic(counter appredis.PendingCounter) *FriendEventConsumerLogic {
	if counter == nil {
		log.Panic("PendingCounter cannot be nil")
	}
	return &FriendEventConsumerLogic{counter: counter}
}

// HandleFriendEvent is the MessageHandler passed to the Kafka consumer.
func (h *FriendEventConsumerLogic) HandleFriendEvent(ctx context.Context, msg *kafka.Message) error {
	var event appkafka.FriendEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("Error unmarshalling friend event (value: %q): %v. Message skipped.", string(msg.Value), err)
		// Returning nil commits the offset; a malformed event is not retriable.
		return nil
	}

	switch event.Type {
	case appkafka.FriendEventRequestCreated:
		return h.counter.Incr(ctx, event.ReceiverID)
	case appkafka.FriendEventRequestAccepted, appkafka.FriendEventRequestRejected:
		return h.counter.Decr(ctx, event.ReceiverID)
	default:
		log.Printf("Unknown friend event type %q, message skipped.", event.Type)
		return nil
	}
}
