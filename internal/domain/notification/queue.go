// Package notification serialises achievement-unlock notifications so that
// at most one is on display at a time.
//
// A notification becomes active, stays for DisplayDuration, and is then
// released. After a short grace delay the next pending notification (FIFO)
// becomes active. Dismissing the active notification releases it early with
// a shorter grace delay. Both release paths go through the same guarded
// sequence, so an expiry racing a dismissal can never produce two active
// notifications.
package notification

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

const (
	DefaultDisplayDuration = 5500 * time.Millisecond
	DefaultExpiryGrace     = 300 * time.Millisecond
	DefaultDismissGrace    = 100 * time.Millisecond
	DefaultHistoryLimit    = 50
)

// Config tunes a Queue. Zero fields take the defaults.
type Config struct {
	DisplayDuration time.Duration
	ExpiryGrace     time.Duration
	DismissGrace    time.Duration
	HistoryLimit    int
	Clock           Clock
}

// DefaultConfig returns the standard display timings.
func DefaultConfig() Config {
	return Config{
		DisplayDuration: DefaultDisplayDuration,
		ExpiryGrace:     DefaultExpiryGrace,
		DismissGrace:    DefaultDismissGrace,
		HistoryLimit:    DefaultHistoryLimit,
		Clock:           SystemClock{},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DisplayDuration <= 0 {
		c.DisplayDuration = d.DisplayDuration
	}
	if c.ExpiryGrace <= 0 {
		c.ExpiryGrace = d.ExpiryGrace
	}
	if c.DismissGrace <= 0 {
		c.DismissGrace = d.DismissGrace
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// Notification is one unlock occurrence. The ID is unique per occurrence,
// not per achievement.
type Notification struct {
	ID          string                   `json:"id"`
	Achievement gamification.Achievement `json:"achievement"`
	Timestamp   time.Time                `json:"timestamp"`
}

// NewID builds a notification id for an achievement.
func NewID(achievementID string) string {
	return fmt.Sprintf("achievement-%s-%s", achievementID, uuid.NewString())
}

// Snapshot is a consistent view of the queue.
type Snapshot struct {
	Active  *Notification  `json:"active"`
	Pending []Notification `json:"pending"`
	History []Notification `json:"history"`
}

// ══════════════════════════════════════════════════════════════════════════════
// QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// Queue is safe for concurrent use.
type Queue struct {
	mu  sync.Mutex
	cfg Config

	pending []Notification
	active  *Notification
	history []Notification // newest first

	// busy is true from activation until the next item may start, grace
	// delay included. Nothing activates while it is set.
	busy bool

	displayTimer Timer
	graceTimer   Timer

	// epoch invalidates callbacks scheduled before a Clear or Close.
	epoch  uint64
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue(cfg Config) *Queue {
	return &Queue{
		cfg:     cfg.withDefaults(),
		pending: make([]Notification, 0),
		history: make([]Notification, 0),
	}
}

// Show enqueues a notification for a, records it in history, and starts
// displaying it if nothing else is on screen.
func (q *Queue) Show(a gamification.Achievement) Notification {
	n := Notification{
		ID:          NewID(a.ID),
		Achievement: a,
		Timestamp:   q.cfg.Clock.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return n
	}

	q.history = append([]Notification{n}, q.history...)
	if len(q.history) > q.cfg.HistoryLimit {
		q.history = q.history[:q.cfg.HistoryLimit]
	}

	q.pending = append(q.pending, n)
	if !q.busy {
		q.activateNextLocked()
	}
	return n
}

// Dismiss removes the notification id from the active slot, the pending
// queue and history. It reports whether anything was removed.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := false
	if q.active != nil && q.active.ID == id {
		q.releaseLocked(q.cfg.DismissGrace)
		removed = true
	}

	before := len(q.pending)
	q.pending = without(q.pending, id)
	removed = removed || len(q.pending) != before

	before = len(q.history)
	q.history = without(q.history, id)
	removed = removed || len(q.history) != before

	return removed
}

// Clear empties history, the active slot and the pending queue at once.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetLocked()
}

// Close stops all timers. A closed queue ignores Show.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetLocked()
	q.closed = true
}

// Active returns the notification on display, if any.
func (q *Queue) Active() (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == nil {
		return Notification{}, false
	}
	return *q.active, true
}

// Pending returns the queued notifications in display order.
func (q *Queue) Pending() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification(nil), q.pending...)
}

// History returns recent notifications, newest first.
func (q *Queue) History() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification(nil), q.history...)
}

// Snapshot returns active, pending and history under one lock.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Snapshot{
		Pending: append(make([]Notification, 0, len(q.pending)), q.pending...),
		History: append(make([]Notification, 0, len(q.history)), q.history...),
	}
	if q.active != nil {
		active := *q.active
		s.Active = &active
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// internals (q.mu held)
// ══════════════════════════════════════════════════════════════════════════════

func (q *Queue) activateNextLocked() {
	q.graceTimer = nil
	if q.closed || len(q.pending) == 0 {
		q.busy = false
		return
	}

	next := q.pending[0]
	q.pending = q.pending[1:]
	q.active = &next
	q.busy = true

	epoch, id := q.epoch, next.ID
	q.displayTimer = q.cfg.Clock.AfterFunc(q.cfg.DisplayDuration, func() {
		q.expire(epoch, id)
	})
}

// releaseLocked clears the active slot and schedules the next activation.
func (q *Queue) releaseLocked(grace time.Duration) {
	if q.displayTimer != nil {
		q.displayTimer.Stop()
		q.displayTimer = nil
	}
	q.active = nil

	epoch := q.epoch
	q.graceTimer = q.cfg.Clock.AfterFunc(grace, func() {
		q.advance(epoch)
	})
}

func (q *Queue) resetLocked() {
	if q.displayTimer != nil {
		q.displayTimer.Stop()
	}
	if q.graceTimer != nil {
		q.graceTimer.Stop()
	}
	q.displayTimer, q.graceTimer = nil, nil
	q.epoch++
	q.pending = make([]Notification, 0)
	q.history = make([]Notification, 0)
	q.active = nil
	q.busy = false
}

func (q *Queue) expire(epoch uint64, id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// A dismissal or clear got there first.
	if epoch != q.epoch || q.active == nil || q.active.ID != id {
		return
	}
	q.displayTimer = nil
	q.releaseLocked(q.cfg.ExpiryGrace)
}

func (q *Queue) advance(epoch uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if epoch != q.epoch || q.active != nil {
		return
	}
	q.activateNextLocked()
}

func without(ns []Notification, id string) []Notification {
	out := ns[:0]
	for _, n := range ns {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}
