package messaging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher registers named handlers on a bus behind a middleware chain and
// remembers the most recent failures.
type Dispatcher struct {
	bus         shared.EventSubscriber
	middlewares []Middleware
	logger      *slog.Logger
	failures    *DeadLetterQueue
	mu          sync.Mutex
}

// NewDispatcher creates a Dispatcher with recovery and logging middleware.
// deadLetterSize bounds the failure log.
func NewDispatcher(bus shared.EventSubscriber, logger *slog.Logger, deadLetterSize int) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		bus:         bus,
		middlewares: []Middleware{RecoveryMiddleware(logger), LoggingMiddleware(logger)},
		logger:      logger,
		failures:    NewDeadLetterQueue(deadLetterSize),
	}
}

// Use appends a middleware. It applies to handlers registered afterwards.
func (d *Dispatcher) Use(m Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, m)
}

// Register subscribes handler for eventType under name.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	d.mu.Lock()
	chain := handler
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		chain = d.middlewares[i](chain)
	}
	d.mu.Unlock()

	return d.bus.Subscribe(eventType, func(event shared.Event) error {
		err := chain(event)
		if err != nil {
			d.failures.Add(DeadLetterEntry{
				EventType:   event.EventType(),
				AggregateID: event.AggregateID(),
				HandlerName: name,
				Error:       err.Error(),
				FailedAt:    time.Now().UTC(),
			})
		}
		return err
	})
}

// Failures returns the remembered failures, oldest first.
func (d *Dispatcher) Failures() []DeadLetterEntry {
	return d.failures.Entries()
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// RecoveryMiddleware turns a handler panic into an error.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs handler outcome and duration.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			if err != nil {
				logger.Error("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", time.Since(start),
					"error", err,
				)
				return err
			}
			logger.Debug("handler completed",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"duration", time.Since(start),
			)
			return nil
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry records one failed delivery.
type DeadLetterEntry struct {
	EventType   shared.EventType `json:"event_type"`
	AggregateID string           `json:"aggregate_id"`
	HandlerName string           `json:"handler"`
	Error       string           `json:"error"`
	FailedAt    time.Time        `json:"failed_at"`
}

// DeadLetterQueue keeps the last maxSize entries.
type DeadLetterQueue struct {
	mu      sync.Mutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a queue; sizes below 1 become 100.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize < 1 {
		maxSize = 100
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends e, dropping the oldest entry when full.
func (q *DeadLetterQueue) Add(e DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, e)
}

// Entries returns a copy of the queue.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}
