package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gateway:ratelimit:"

// RateLimiterAdapter is a Redis implementation of the RateLimiterRepository port.
type RateLimiterAdapter struct {
	rdb *redis.Client
}

func NewRateLimiterAdapter(rdb *redis.Client) *RateLimiterAdapter {
	return &RateLimiterAdapter{rdb: rdb}
}

// IsAllowed implements a fixed-window counter. The window starts with the
// first request seen for key.
func (a *RateLimiterAdapter) IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = keyPrefix + key

	count, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis INCR failed: %w", err)
	}

	if count == 1 {
		if err := a.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("redis EXPIRE failed: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// Close gracefully closes the Redis connection.
func (a *RateLimiterAdapter) Close() error {
	return a.rdb.Close()
}
