package history

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// activityKey is the single sorted set ranking users by last activity.
const activityKey = "chat_activity"

// RedisActivityIndex ranks users by last-activity timestamp in a Redis
// sorted set. Used only to pick eviction victims when the fast tier exceeds
// its user-count bound.
type RedisActivityIndex struct {
	rdb *redis.Client
}

func NewRedisActivityIndex(rdb *redis.Client) *RedisActivityIndex {
	return &RedisActivityIndex{rdb: rdb}
}

// Touch upserts the user's rank to ts (unix seconds).
func (a *RedisActivityIndex) Touch(ctx context.Context, userID string, ts float64) error {
	return a.rdb.ZAdd(ctx, activityKey, redis.Z{Score: ts, Member: userID}).Err()
}

// Remove drops the user's rank entry. Idempotent.
func (a *RedisActivityIndex) Remove(ctx context.Context, userID string) error {
	return a.rdb.ZRem(ctx, activityKey, userID).Err()
}

// Oldest returns the n least recently active users in ascending activity order.
func (a *RedisActivityIndex) Oldest(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return a.rdb.ZRange(ctx, activityKey, 0, n-1).Result()
}

// Count returns the number of ranked users.
func (a *RedisActivityIndex) Count(ctx context.Context) (int64, error) {
	return a.rdb.ZCard(ctx, activityKey).Result()
}
