package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/memory"
	"github.com/Mangopixel04/portfliomango/pkg/circuitbreaker"
)

// flakyStore fails every call while down is set.
type flakyStore struct {
	*memory.DeviceStore
	down  bool
	calls int
}

var errDown = errors.New("connection refused")

func (f *flakyStore) Set(ctx context.Context, device, key, value string) error {
	f.calls++
	if f.down {
		return errDown
	}
	return f.DeviceStore.Set(ctx, device, key, value)
}

func TestGuardedStore_OpensAfterFailures(t *testing.T) {
	flaky := &flakyStore{DeviceStore: memory.NewDeviceStore(), down: true}
	guarded := NewGuardedStore(flaky, circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(2)))
	store := NewStore(guarded, device, quietLogger())
	ctx := context.Background()
	state := playedState()

	for i := 0; i < 2; i++ {
		err := store.SaveGameState(ctx, state)
		assert.ErrorIs(t, err, shared.ErrProgressWriteFailed)
	}
	assert.Equal(t, circuitbreaker.StateOpen, guarded.State())

	err := store.SaveGameState(ctx, state)
	assert.ErrorIs(t, err, shared.ErrProgressWriteFailed)
	assert.Equal(t, 2, flaky.calls, "open circuit must not reach the backend")
}

func TestGuardedStore_PassesThrough(t *testing.T) {
	kv := memory.NewDeviceStore()
	store := NewStore(NewGuardedStore(kv, circuitbreaker.New("test")), device, quietLogger())
	ctx := context.Background()

	require.NoError(t, store.SaveGameState(ctx, playedState()))
	_, ok := store.LoadGameState(ctx)
	assert.True(t, ok)

	require.NoError(t, store.ClearAllData(ctx))
	_, ok = store.LoadGameState(ctx)
	assert.False(t, ok)
}
