package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

// immediately is always due.
type immediately struct{}

func (immediately) Next(t time.Time) time.Time { return t }
func (immediately) String() string             { return "@always" }

func newTestScheduler() *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tick:   5 * time.Millisecond,
	})
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)
	assert.ErrorIs(t, s.SetEnabled("missing", true), ErrJobNotFound)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "@every 1m0s", jobs[0].Schedule)
}

func TestScheduler_RunsDueJobsUntilStopped(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, immediately{}))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	after := job.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load())
}

func TestScheduler_DisabledJobDoesNotRun(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "off"}
	require.NoError(t, s.Register(job, immediately{}))
	require.NoError(t, s.SetEnabled("off", false))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop())
	assert.Zero(t, job.runs.Load())
}

func TestScheduler_RunNowRecordsFailures(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("boom")
	job := &countingJob{name: "fails", err: boom}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	var reported string
	s.OnJobError(func(name string, _ error) { reported = name })

	res, err := s.RunNow(context.Background(), "fails")
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.True(t, res.Manual)
	assert.Equal(t, "fails", reported)

	history := s.GetHistory(10)
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), s.ListJobs()[0].FailCount)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowRejectsOverlap(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	done := make(chan struct{})
	go func() {
		_, _ = s.RunNow(context.Background(), "slow")
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobBusy)

	close(job.block)
	<-done
}

func TestIntervalSchedule_Minimum(t *testing.T) {
	assert.Equal(t, MinInterval, NewIntervalSchedule(0).Interval)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Minute), NewIntervalSchedule(time.Minute).Next(now))
}
