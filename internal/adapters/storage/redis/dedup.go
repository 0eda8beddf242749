package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupPrefix = "gateway:audit:event:"

// EventDeduplicator remembers processed event ids for a bounded time.
type EventDeduplicator struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEventDeduplicator(rdb *redis.Client, ttl time.Duration) *EventDeduplicator {
	return &EventDeduplicator{rdb: rdb, ttl: ttl}
}

// Seen reports whether eventID was marked within the last ttl.
func (d *EventDeduplicator) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, dedupPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis EXISTS failed: %w", err)
	}
	return n > 0, nil
}

// Mark records eventID as processed.
func (d *EventDeduplicator) Mark(ctx context.Context, eventID string) error {
	if err := d.rdb.Set(ctx, dedupPrefix+eventID, 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}
