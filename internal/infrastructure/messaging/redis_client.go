package messaging

import (
	"context"

	redisinfra "github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/redis"
)

// CacheClient adapts the Redis cache to RedisClient.
type CacheClient struct {
	cache *redisinfra.Cache
}

// NewCacheClient wraps cache.
func NewCacheClient(cache *redisinfra.Cache) *CacheClient {
	return &CacheClient{cache: cache}
}

func (c *CacheClient) Publish(ctx context.Context, channel string, message any) error {
	return c.cache.Publish(ctx, redisinfra.PubSubChannel(channel), message)
}

// Subscribe waits for the subscription to be confirmed, then forwards
// messages until ctx is cancelled.
func (c *CacheClient) Subscribe(ctx context.Context, channel string) (<-chan RedisMessage, error) {
	ps := c.cache.Subscribe(ctx, redisinfra.PubSubChannel(channel))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		defer ps.Close()

		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
