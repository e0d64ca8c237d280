package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWithURL(t *testing.T) {
	base := DefaultConfig()
	base.PoolSize = 25

	cfg, err := base.WithURL("redis://:hunter2@cache.internal:6380/3")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal", cfg.Host)
	assert.Equal(t, 6380, cfg.Port)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, 3, cfg.DB)
	assert.Equal(t, 25, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, "cache.internal:6380", cfg.Addr())

	_, err = base.WithURL("http://not-redis")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "device:visitor-1:gameState", DeviceKey("visitor-1", "gameState"))
	assert.Equal(t, "pubsub:portfolio:events", PubSubChannel("portfolio:events"))
}
