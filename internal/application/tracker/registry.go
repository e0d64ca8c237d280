package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/progress"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

// DefaultIdleTimeout is how long a session may go without events before
// EvictIdle ends it.
const DefaultIdleTimeout = 30 * time.Minute

// Config tunes a Registry.
type Config struct {
	IdleTimeout   time.Duration
	Notifications notification.Config
	// Clock drives session timestamps and notification timers.
	Clock notification.Clock
	// Flags may be nil, which enables every feature.
	Flags FeatureGate
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.Clock == nil {
		c.Clock = notification.SystemClock{}
	}
	if c.Notifications.Clock == nil {
		c.Notifications.Clock = c.Clock
	}
	return c
}

// Registry opens and keeps one Session per device.
type Registry struct {
	mu       sync.Mutex
	sessions map[shared.DeviceID]*Session
	// ending holds devices whose session is writing its final records.
	// Open waits on the channel so it loads what End saved.
	ending map[shared.DeviceID]chan struct{}
	closed bool

	kv       progress.KeyValueStore
	bus      shared.EventPublisher
	presence portfolio.PresenceCounter
	cfg      Config
	log      *logger.Logger
}

// NewRegistry creates a Registry. bus and presence may be nil.
func NewRegistry(kv progress.KeyValueStore, bus shared.EventPublisher, presence portfolio.PresenceCounter, cfg Config, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Default()
	}
	return &Registry{
		sessions: make(map[shared.DeviceID]*Session),
		ending:   make(map[shared.DeviceID]chan struct{}),
		kv:       kv,
		bus:      bus,
		presence: presence,
		cfg:      cfg.withDefaults(),
		log:      log.With(logger.Component("tracker")),
	}
}

// Open returns the device's live session, loading it from storage when
// there is none: legacy migration, then load, then either the return-visit
// transition or a fresh first-time state. Visit-count achievements earned by
// the return unlock during Open.
func (r *Registry) Open(ctx context.Context, device shared.DeviceID) (*Session, error) {
	if !device.IsValid() {
		return nil, shared.ErrInvalidDeviceID
	}
	for {
		r.mu.Lock()
		s, live := r.sessions[device]
		done := r.ending[device]
		r.mu.Unlock()
		if live {
			return s, nil
		}
		if done == nil {
			break
		}
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	log := r.log.With(logger.DeviceID(device.String()))
	store := progress.NewStore(r.kv, device, log)
	now := r.cfg.Clock.Now()

	store.MigrateIfNeeded(ctx)
	stored, found := store.LoadGameState(ctx)
	var state gamification.GameState
	if found {
		state = gamification.ResumeSession(stored, now)
	} else {
		state = gamification.NewGameState(now)
	}

	s := &Session{
		device:         device,
		state:          state,
		saves:          newSaver(store),
		queue:          notification.NewQueue(r.cfg.Notifications),
		bus:            r.bus,
		presence:       r.presence,
		clock:          r.cfg.Clock,
		flags:          r.cfg.Flags,
		log:            log,
		lastActive:     now,
		sectionEntered: make(map[string]time.Time),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.queue.Close()
		return nil, shared.ErrServiceUnavailable
	}
	if existing, ok := r.sessions[device]; ok {
		r.mu.Unlock()
		s.queue.Close()
		return existing, nil
	}
	r.sessions[device] = s
	r.mu.Unlock()

	if found {
		log.Info("visitor returned",
			logger.Int("total_visits", state.VisitorStats.TotalVisits),
			logger.Int("consecutive_visits", state.VisitorStats.ConsecutiveVisits))
		if r.bus != nil {
			_ = r.bus.Publish(shared.NewVisitorReturnedEvent(device.String(),
				state.VisitorStats.TotalVisits, state.VisitorStats.ConsecutiveVisits))
		}
	} else {
		log.Info("new visitor session")
	}

	// SESSION_START changes nothing by itself, but it runs the evaluator
	// over the resumed stats and persists the result.
	s.Dispatch(ctx, gamification.SessionStart(now))
	return s, nil
}

// Lookup returns the live session of device without loading.
func (r *Registry) Lookup(device shared.DeviceID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[device]
	return s, ok
}

// Queue returns the notification queue of device's live session.
func (r *Registry) Queue(device shared.DeviceID) (*notification.Queue, bool) {
	s, ok := r.Lookup(device)
	if !ok {
		return nil, false
	}
	return s.queue, true
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// End emits SESSION_END for device, waits for its records to be written,
// closes its notification queue and drops it from the registry. An Open for
// the same device blocks until the final write lands. Reports whether a
// session existed.
func (r *Registry) End(ctx context.Context, device shared.DeviceID) bool {
	r.mu.Lock()
	s, ok := r.sessions[device]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, device)
	done := make(chan struct{})
	r.ending[device] = done
	r.mu.Unlock()

	s.EndSession(ctx)
	s.Flush()
	s.queue.Close()

	r.mu.Lock()
	delete(r.ending, device)
	r.mu.Unlock()
	close(done)
	return true
}

// EvictIdle ends every session idle for longer than the idle timeout and
// returns how many were ended.
func (r *Registry) EvictIdle(ctx context.Context) int {
	cutoff := r.cfg.Clock.Now().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var idle []shared.DeviceID
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	n := 0
	for _, id := range idle {
		if r.End(ctx, id) {
			n++
		}
	}
	if n > 0 {
		r.log.Info("evicted idle sessions", logger.Int("count", n))
	}
	return n
}

// Shutdown ends every session and refuses new ones.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	ids := make([]shared.DeviceID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.End(ctx, id)
	}
}
