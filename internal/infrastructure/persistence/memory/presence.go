package memory

import (
	"context"
	"sync"
	"time"
)

// Presence counts live visitors in process memory.
type Presence struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewPresence creates a tracker where a visitor stays live for window after
// their last event.
func NewPresence(window time.Duration) *Presence {
	return &Presence{
		window:   window,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (p *Presence) Touch(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen[sessionID] = p.now()
	return nil
}

// LiveCount also forgets sessions that fell out of the window.
func (p *Presence) LiveCount(_ context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	return int64(len(p.lastSeen)), nil
}

// CleanupStale forgets sessions that fell out of the window and returns how
// many were dropped.
func (p *Presence) CleanupStale(_ context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pruneLocked(), nil
}

func (p *Presence) pruneLocked() int64 {
	cutoff := p.now().Add(-p.window)
	var removed int64
	for id, seen := range p.lastSeen {
		if seen.Before(cutoff) {
			delete(p.lastSeen, id)
			removed++
		}
	}
	return removed
}
