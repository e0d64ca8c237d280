package redis

import (
	"context"
	"errors"
	"time"
)

// DeviceStore keeps each device's records under device:{id}:{key}.
type DeviceStore struct {
	cache *Cache
	// ttl of 0 keeps records forever.
	ttl time.Duration
}

// NewDeviceStore creates a DeviceStore. Records idle for longer than ttl
// expire; pass 0 to keep them.
func NewDeviceStore(cache *Cache, ttl time.Duration) *DeviceStore {
	return &DeviceStore{cache: cache, ttl: ttl}
}

func (s *DeviceStore) Get(ctx context.Context, device, key string) (string, bool, error) {
	v, err := s.cache.GetString(ctx, DeviceKey(device, key))
	if errors.Is(err, ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *DeviceStore) Set(ctx context.Context, device, key, value string) error {
	return s.cache.SetString(ctx, DeviceKey(device, key), value, s.ttl)
}

func (s *DeviceStore) Remove(ctx context.Context, device string, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = DeviceKey(device, k)
	}
	return s.cache.Delete(ctx, full...)
}
