// Package jobs contains the scheduled maintenance jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVICT IDLE SESSIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// IdleEvictor ends sessions that saw no events for too long.
type IdleEvictor interface {
	EvictIdle(ctx context.Context) int
}

// EvictIdleSessionsJob closes abandoned visitor sessions so their dwell
// time is folded into the stored totals.
type EvictIdleSessionsJob struct {
	sessions IdleEvictor
	logger   *slog.Logger
	evicted  atomic.Int64
}

func NewEvictIdleSessionsJob(sessions IdleEvictor, logger *slog.Logger) *EvictIdleSessionsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvictIdleSessionsJob{sessions: sessions, logger: logger}
}

func (j *EvictIdleSessionsJob) Name() string { return "evict_idle_sessions" }

func (j *EvictIdleSessionsJob) Description() string {
	return "Ends visitor sessions past the idle timeout"
}

func (j *EvictIdleSessionsJob) Run(ctx context.Context) error {
	n := j.sessions.EvictIdle(ctx)
	total := j.evicted.Add(int64(n))
	if n > 0 {
		j.logger.Info("idle sessions evicted", "count", n, "total", total)
	}
	return ctx.Err()
}

// Evicted returns how many sessions this job has ended so far.
func (j *EvictIdleSessionsJob) Evicted() int64 { return j.evicted.Load() }

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE CLEANUP JOB
// ══════════════════════════════════════════════════════════════════════════════

// StaleCleaner drops presence entries outside the live window.
type StaleCleaner interface {
	CleanupStale(ctx context.Context) (int64, error)
}

// CleanupPresenceJob keeps the live visitor set from growing without bound.
type CleanupPresenceJob struct {
	presence StaleCleaner
	logger   *slog.Logger
}

func NewCleanupPresenceJob(presence StaleCleaner, logger *slog.Logger) *CleanupPresenceJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupPresenceJob{presence: presence, logger: logger}
}

func (j *CleanupPresenceJob) Name() string { return "cleanup_presence" }

func (j *CleanupPresenceJob) Description() string {
	return "Drops live-visitor entries older than the presence window"
}

func (j *CleanupPresenceJob) Run(ctx context.Context) error {
	removed, err := j.presence.CleanupStale(ctx)
	if err != nil {
		return fmt.Errorf("cleanup_presence: %w", err)
	}
	if removed > 0 {
		j.logger.Debug("stale presence removed", "count", removed)
	}
	return nil
}
