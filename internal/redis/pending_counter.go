package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// PendingCounter tracks per-user counts of unanswered incoming friend
// requests. The counters are denormalized from the friend-event stream and may
// momentarily lag the relationship store; the store remains the source of
// truth.
type PendingCounter interface {
	Incr(ctx context.Context, userID uint) error
	Decr(ctx context.Context, userID uint) error
	Get(ctx context.Context, userID uint) (int64, error)
}

type redisPendingCounter struct {
	client *redis.Client
}

// NewRedisPendingCounter creates a Redis-backed PendingCounter.
func NewRedisPendingCounter(client *redis.Client) PendingCounter {
	return &redisPendingCounter{client: client}
}

const pendingCountKeyPrefix = "friend:pending:"

func pendingCountKey(userID uint) string {
	return pendingCountKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func (r *redisPendingCounter) Incr(ctx context.Context, userID uint) error {
	if err := r.client.Incr(ctx, pendingCountKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to increment pending counter for user %d: %w", userID, err)
	}
	return nil
}

// Decr decrements the counter, clamping at zero so replayed or reordered
// events cannot drive it negative.
func (r *redisPendingCounter) Decr(ctx context.Context, userID uint) error {
	key := pendingCountKey(userID)
	val, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to decrement pending counter for user %d: %w", userID, err)
	}
	if val < 0 {
		if err := r.client.Set(ctx, key, 0, 0).Err(); err != nil {
			return fmt.Errorf("failed to clamp pending counter for user %d: %w", userID, err)
		}
	}
	return nil
}

func (r *redisPendingCounter) Get(ctx context.Context, userID uint) (int64, error) {
	val, err := r.client.Get(ctx, pendingCountKey(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read pending counter for user %d: %w", userID, err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt pending counter for user %d: %w", userID, err)
	}
	return n, nil
}
