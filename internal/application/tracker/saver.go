package tracker

import (
	"context"
	"sync"

	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/progress"
)

// saveJob is one pending write of a session's records.
type saveJob struct {
	state gamification.GameState
	stats bool
	clear bool
}

// saver writes a session's records off the request path. Writes run one at
// a time in a background goroutine; jobs scheduled while a write runs
// collapse into the newest one, so the store always ends on the latest
// state. A pending clear survives the collapse.
type saver struct {
	mu      sync.Mutex
	store   *progress.Store
	pending *saveJob
	// idle is closed when the running drain finishes; nil while no drain runs.
	idle chan struct{}
}

func newSaver(store *progress.Store) *saver {
	return &saver{store: store}
}

func (w *saver) schedule(ctx context.Context, job saveJob) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil && w.pending.clear {
		job.clear = true
	}
	w.pending = &job
	if w.idle != nil {
		return
	}
	w.idle = make(chan struct{})
	go w.drain(context.WithoutCancel(ctx), w.idle)
}

func (w *saver) drain(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		w.mu.Lock()
		job := w.pending
		w.pending = nil
		if job == nil {
			w.idle = nil
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()
		w.write(ctx, *job)
	}
}

// write ignores errors; the store logs them.
func (w *saver) write(ctx context.Context, job saveJob) {
	if job.clear {
		_ = w.store.ClearAllData(ctx)
	}
	if job.state.VisitorStats.TotalVisits <= 0 {
		return
	}
	_ = w.store.SaveGameState(ctx, job.state)
	if job.stats {
		_ = w.store.SaveVisitorStats(ctx, job.state.VisitorStats)
	}
}

// flush blocks until every scheduled job has been written.
func (w *saver) flush() {
	w.mu.Lock()
	done := w.idle
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}
