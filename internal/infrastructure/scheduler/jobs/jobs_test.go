package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvictor struct{ n int }

func (f fakeEvictor) EvictIdle(context.Context) int { return f.n }

type fakeCleaner struct {
	removed int64
	err     error
}

func (f fakeCleaner) CleanupStale(context.Context) (int64, error) { return f.removed, f.err }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestEvictIdleSessionsJob(t *testing.T) {
	job := NewEvictIdleSessionsJob(fakeEvictor{n: 3}, quiet())
	assert.Equal(t, "evict_idle_sessions", job.Name())

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int64(6), job.Evicted())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
}

func TestCleanupPresenceJob(t *testing.T) {
	require.NoError(t, NewCleanupPresenceJob(fakeCleaner{removed: 2}, quiet()).Run(context.Background()))

	boom := errors.New("redis down")
	err := NewCleanupPresenceJob(fakeCleaner{err: boom}, quiet()).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
