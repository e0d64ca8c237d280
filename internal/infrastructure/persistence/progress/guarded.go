package progress

import (
	"context"

	"github.com/Mangopixel04/portfliomango/pkg/circuitbreaker"
)

// GuardedStore routes every call of a remote KeyValueStore through a
// circuit breaker. While the circuit is open calls fail at once with
// circuitbreaker.ErrCircuitOpen, which the Store logs like any other
// backend error.
type GuardedStore struct {
	next    KeyValueStore
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedStore wraps next.
func NewGuardedStore(next KeyValueStore, breaker *circuitbreaker.CircuitBreaker) *GuardedStore {
	return &GuardedStore{next: next, breaker: breaker}
}

func (g *GuardedStore) Get(ctx context.Context, device, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		value, found, err = g.next.Get(ctx, device, key)
		return err
	})
	return value, found, err
}

func (g *GuardedStore) Set(ctx context.Context, device, key, value string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.next.Set(ctx, device, key, value)
	})
}

func (g *GuardedStore) Remove(ctx context.Context, device string, keys ...string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.next.Remove(ctx, device, keys...)
	})
}

// State reports the breaker state for health checks.
func (g *GuardedStore) State() circuitbreaker.State {
	return g.breaker.State()
}
