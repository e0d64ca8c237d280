// Package memory provides in-process storage backends. They are used when no
// database is configured and in tests.
package memory

import (
	"context"
	"sync"
)

// DeviceStore is a device-partitioned string map.
type DeviceStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewDeviceStore creates an empty store.
func NewDeviceStore() *DeviceStore {
	return &DeviceStore{data: make(map[string]map[string]string)}
}

func (s *DeviceStore) Get(_ context.Context, device, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[device][key]
	return v, ok, nil
}

func (s *DeviceStore) Set(_ context.Context, device, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.data[device]
	if !ok {
		ns = make(map[string]string)
		s.data[device] = ns
	}
	ns[key] = value
	return nil
}

func (s *DeviceStore) Remove(_ context.Context, device string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.data[device]
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(s.data, device)
	}
	return nil
}

// Devices returns the number of devices holding at least one key.
func (s *DeviceStore) Devices() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
