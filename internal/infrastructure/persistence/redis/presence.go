package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPresenceWindow is how long a visitor counts as live after their
// last tracked event.
const DefaultPresenceWindow = 5 * time.Minute

// keyPresenceAll is the sorted set of visitor session ids scored by last
// seen unix time.
const keyPresenceAll = PrefixPresence + "all"

// PresenceTracker counts live visitors.
//
// Every tracked event refreshes the visitor's score in a single sorted set;
// the live count is the number of members scored inside the window.
type PresenceTracker struct {
	cache  *Cache
	window time.Duration
	now    func() time.Time
}

// NewPresenceTracker creates a tracker with the given liveness window.
func NewPresenceTracker(cache *Cache, window time.Duration) *PresenceTracker {
	if window <= 0 {
		window = DefaultPresenceWindow
	}
	return &PresenceTracker{cache: cache, window: window, now: time.Now}
}

// Touch marks a visitor session as seen now.
func (t *PresenceTracker) Touch(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrCacheKeyEmpty
	}

	now := t.now().UTC()
	pipe := t.cache.Client().Pipeline()
	pipe.ZAdd(ctx, keyPresenceAll, redis.Z{
		Score:  float64(now.Unix()),
		Member: sessionID,
	})
	pipe.Expire(ctx, keyPresenceAll, 2*t.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to touch presence: %w", err)
	}
	return nil
}

// LiveCount returns the number of sessions seen within the window.
func (t *PresenceTracker) LiveCount(ctx context.Context) (int64, error) {
	cutoff := t.now().Add(-t.window).Unix()
	return t.cache.Client().ZCount(ctx, keyPresenceAll,
		strconv.FormatInt(cutoff, 10), "+inf").Result()
}

// CleanupStale drops sessions last seen before the window.
func (t *PresenceTracker) CleanupStale(ctx context.Context) (int64, error) {
	cutoff := t.now().Add(-t.window).Unix()

	removed, err := t.cache.Client().ZRemRangeByScore(ctx, keyPresenceAll,
		"-inf", "("+strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale presence: %w", err)
	}
	return removed, nil
}
