package tracker

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mangopixel04/portfliomango/config"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/memory"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/progress"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

const device = shared.DeviceID("device-0001")

// manualClock only moves when told to; timers never fire.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return true }

func newClock() *manualClock {
	return &manualClock{now: time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *manualClock) AfterFunc(time.Duration, func()) notification.Timer { return stoppedTimer{} }

// recorder is a synchronous publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []shared.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func (r *recorder) count(t shared.EventType) int {
	n := 0
	for _, et := range r.types() {
		if et == t {
			n++
		}
	}
	return n
}

type fixture struct {
	kv       *memory.DeviceStore
	clock    *manualClock
	bus      *recorder
	presence *memory.Presence
	registry *Registry
}

func newFixture(flags FeatureGate) *fixture {
	f := &fixture{
		kv:       memory.NewDeviceStore(),
		clock:    newClock(),
		bus:      &recorder{},
		presence: memory.NewPresence(5 * time.Minute),
	}
	f.registry = f.newRegistry(flags)
	return f
}

func (f *fixture) newRegistry(flags FeatureGate) *Registry {
	return NewRegistry(f.kv, f.bus, f.presence, Config{
		IdleTimeout: 10 * time.Minute,
		Clock:       f.clock,
		Flags:       flags,
	}, logger.New(logger.Options{Output: io.Discard}))
}

func (f *fixture) store() *progress.Store {
	return progress.NewStore(f.kv, device, logger.New(logger.Options{Output: io.Discard}))
}

func TestRegistry_FirstVisitPersists(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)
	assert.True(t, s.Snapshot().IsFirstTimeUser)
	assert.Equal(t, 1, f.registry.Len())

	s.Flush()
	stored, ok := f.store().LoadGameState(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, stored.VisitorStats.TotalVisits)

	_, ok = f.store().LoadVisitorStats(ctx)
	assert.True(t, ok)

	live, err := f.presence.LiveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), live)

	again, err := f.registry.Open(ctx, device)
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestRegistry_RejectsInvalidDevice(t *testing.T) {
	f := newFixture(nil)
	_, err := f.registry.Open(context.Background(), "x")
	assert.ErrorIs(t, err, shared.ErrInvalidDeviceID)
}

func TestRegistry_ReturnVisitNextDay(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)
	s.TrackSectionVisit(ctx, "home", "Home")
	require.True(t, f.registry.End(ctx, device))

	f.clock.Advance(24 * time.Hour)
	s, err = f.newRegistry(nil).Open(ctx, device)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.False(t, snap.IsFirstTimeUser)
	assert.Equal(t, 2, snap.VisitorStats.TotalVisits)
	assert.Equal(t, 2, snap.VisitorStats.ConsecutiveVisits)
	assert.True(t, snap.VisitorStats.ReturningVisitor)
	assert.True(t, s.IsAchievementUnlocked(gamification.AchievementFirstVisitor))
	assert.True(t, s.IsAchievementUnlocked(gamification.AchievementReturningVisitor))

	assert.Equal(t, 1, f.bus.count(shared.EventVisitorReturned))
}

func TestSession_UnlockPublishesAndLevels(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)

	unlocked := s.TrackSectionVisit(ctx, "home", "Home")
	require.Len(t, unlocked, 1)
	assert.Equal(t, gamification.AchievementFirstVisitor, unlocked[0].ID)
	assert.Equal(t, 10, s.TotalPoints())
	assert.Equal(t, []string{gamification.AchievementFirstVisitor}, s.UnlockedAchievements())
	assert.Equal(t, 1, f.bus.count(shared.EventAchievementUnlocked))

	// Unlocking again changes nothing.
	assert.Empty(t, s.UnlockAchievement(ctx, gamification.AchievementFirstVisitor))
	assert.Empty(t, s.UnlockAchievement(ctx, "no_such_achievement"))
	assert.Equal(t, 10, s.TotalPoints())

	for _, id := range []string{gamification.AchievementSectionExplorer, gamification.AchievementMarathonReader} {
		s.UnlockAchievement(ctx, id)
	}
	assert.Greater(t, s.CurrentLevel(), 1)
	assert.Equal(t, 1, f.bus.count(shared.EventLevelUp))

	xp := s.ExperienceProgress()
	assert.GreaterOrEqual(t, xp.Current, 0)
}

func TestSession_ResetClearsStoreAndStartsOver(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)

	s.TrackSectionVisit(ctx, "home", "Home")
	s.TrackClick(ctx, ClickButton)
	require.NotZero(t, s.TotalPoints())

	s.ResetProgress(ctx)
	snap := s.Snapshot()
	assert.Zero(t, snap.TotalPoints)
	assert.Empty(t, snap.UnlockedAchievements)
	assert.True(t, snap.IsFirstTimeUser)
	assert.Equal(t, 1, f.bus.count(shared.EventProgressReset))

	s.Flush()
	stored, ok := f.store().LoadGameState(ctx)
	require.True(t, ok)
	assert.Zero(t, stored.TotalPoints)
}

func TestSession_SectionDwell(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)

	s.EnterSection(ctx, "about", "About")
	s.EnterSection(ctx, "about", "About")
	f.clock.Advance(500 * time.Millisecond)
	s.LeaveSection(ctx, "about")

	sec, ok := s.Snapshot().Section("about")
	require.True(t, ok)
	assert.Equal(t, 1, sec.Visits)
	assert.Zero(t, sec.TimeSpent)

	s.EnterSection(ctx, "about", "About")
	f.clock.Advance(90 * time.Second)
	s.LeaveSection(ctx, "about")

	sec, _ = s.Snapshot().Section("about")
	assert.Equal(t, 2, sec.Visits)
	assert.InDelta(t, 90, sec.TimeSpent, 0.001)
	assert.Empty(t, s.LeaveSection(ctx, "about"))
}

func TestSession_BoundaryHelpers(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)

	s.TrackClick(ctx, ClickLink)
	s.TrackHover(ctx, HoverSkill)
	s.TrackHover(ctx, HoverMagnetic)
	s.TrackScroll(ctx, 42.6)
	s.TrackScroll(ctx, -3)
	s.TrackVoiceCommand(ctx)
	s.SubmitForm(ctx, "contact")
	s.TrackProjectView(ctx, "p1")

	stats := s.Snapshot().InteractionStats
	assert.Equal(t, 1, stats.LinkClicks)
	assert.Equal(t, 1, stats.ButtonClicks)
	assert.Equal(t, 1, stats.SkillHovers)
	assert.Equal(t, 1, stats.MagneticInteractions)
	assert.Equal(t, 43, stats.ScrollDepth)
	assert.Equal(t, 1, stats.VoiceCommands)
	assert.Equal(t, 1, stats.FormSubmissions)
	assert.Equal(t, 1, stats.ProjectViews)
	assert.True(t, s.IsAchievementUnlocked(gamification.AchievementContactInitiator))
	assert.False(t, s.IsAchievementUnlocked(gamification.AchievementVoiceCommander))

	s.TrackVoiceCommand(ctx)
	unlocked := s.TrackVoiceCommand(ctx)
	require.Len(t, unlocked, 1)
	assert.Equal(t, gamification.AchievementVoiceCommander, unlocked[0].ID)
}

type flagSet map[string]bool

func (f flagSet) IsEnabled(name, _ string) bool {
	enabled, ok := f[name]
	return !ok || enabled
}

func TestSession_FeatureFlags(t *testing.T) {
	f := newFixture(flagSet{config.FeatureVoiceCommands: false, config.FeatureVisitorStats: false})
	ctx := context.Background()
	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)

	assert.Empty(t, s.TrackVoiceCommand(ctx))
	assert.Zero(t, s.Snapshot().InteractionStats.VoiceCommands)

	s.Flush()
	_, ok := f.store().LoadVisitorStats(ctx)
	assert.False(t, ok)
	_, ok = f.store().LoadGameState(ctx)
	assert.True(t, ok)
}

func TestRegistry_EvictIdleAndShutdown(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.registry.Open(ctx, device)
	require.NoError(t, err)
	f.clock.Advance(8 * time.Minute)

	busy, err := f.registry.Open(ctx, "device-0002")
	require.NoError(t, err)
	f.clock.Advance(3 * time.Minute)
	busy.TrackClick(ctx, ClickButton)

	assert.Equal(t, 1, f.registry.EvictIdle(ctx))
	_, ok := f.registry.Lookup(device)
	assert.False(t, ok)
	_, ok = f.registry.Queue("device-0002")
	assert.True(t, ok)

	// The evicted session folded its time into the stored totals.
	stored, ok := f.store().LoadGameState(ctx)
	require.True(t, ok)
	assert.InDelta(t, (11 * time.Minute).Seconds(), stored.VisitorStats.TotalTimeSpent, 0.001)

	f.registry.Shutdown(ctx)
	assert.Zero(t, f.registry.Len())
	_, err = f.registry.Open(ctx, device)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

func TestFromContext(t *testing.T) {
	f := newFixture(nil)
	s, err := f.registry.Open(context.Background(), device)
	require.NoError(t, err)

	ctx := WithSession(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))

	assert.Panics(t, func() { FromContext(context.Background()) })
}

func TestSession_StampsEventsWithSessionClock(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)

	future := f.clock.Now().Add(20 * time.Minute)
	for _, a := range s.Dispatch(ctx, gamification.ProjectView("p1", future)) {
		assert.NotEqual(t, gamification.AchievementDeepDiver, a.ID)
		assert.NotEqual(t, gamification.AchievementMarathonReader, a.ID)
	}
	assert.False(t, s.IsAchievementUnlocked(gamification.AchievementDeepDiver))
	assert.Equal(t, 1, s.Snapshot().InteractionStats.ProjectViews)

	s.TrackSectionVisit(ctx, "home", "Home")
	sec, ok := s.Snapshot().Section("home")
	require.True(t, ok)
	assert.Equal(t, f.clock.Now(), sec.LastVisited)
}

// gatedStore blocks writes while held so a test can observe what happens
// during a slow save.
type gatedStore struct {
	progress.KeyValueStore

	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (g *gatedStore) hold() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	g.entered = make(chan struct{})
	g.once = sync.Once{}
}

func (g *gatedStore) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gate)
}

func (g *gatedStore) Set(ctx context.Context, device, key, value string) error {
	g.mu.Lock()
	gate, entered := g.gate, g.entered
	g.mu.Unlock()
	if gate != nil {
		g.once.Do(func() { close(entered) })
		<-gate
	}
	return g.KeyValueStore.Set(ctx, device, key, value)
}

func TestRegistry_OpenWaitsForFinalSave(t *testing.T) {
	f := newFixture(nil)
	kv := &gatedStore{KeyValueStore: memory.NewDeviceStore()}
	registry := NewRegistry(kv, nil, nil, Config{Clock: f.clock}, logger.New(logger.Options{Output: io.Discard}))
	ctx := context.Background()

	s, err := registry.Open(ctx, device)
	require.NoError(t, err)
	s.Flush()
	f.clock.Advance(5 * time.Minute)

	kv.hold()
	ended := make(chan struct{})
	go func() {
		registry.End(ctx, device)
		close(ended)
	}()
	<-kv.entered

	opened := make(chan *Session, 1)
	go func() {
		next, err := registry.Open(ctx, device)
		assert.NoError(t, err)
		opened <- next
	}()

	select {
	case <-opened:
		t.Fatal("Open returned while the ended session was still saving")
	case <-time.After(50 * time.Millisecond):
	}

	kv.release()
	next := <-opened
	<-ended
	assert.NotSame(t, s, next)
	assert.InDelta(t, (5 * time.Minute).Seconds(), next.Snapshot().VisitorStats.TotalTimeSpent, 0.001)
}

func TestSession_SavesInBackground(t *testing.T) {
	f := newFixture(nil)
	kv := &gatedStore{KeyValueStore: memory.NewDeviceStore()}
	registry := NewRegistry(kv, nil, nil, Config{Clock: f.clock}, logger.New(logger.Options{Output: io.Discard}))
	ctx := context.Background()

	s, err := registry.Open(ctx, device)
	require.NoError(t, err)
	s.Flush()

	kv.hold()
	unlocked := s.TrackSectionVisit(ctx, "home", "Home")
	require.Len(t, unlocked, 1)
	<-kv.entered
	s.TrackClick(ctx, ClickButton)
	s.TrackClick(ctx, ClickButton)
	kv.release()
	s.Flush()

	stored, ok := progress.NewStore(kv, device, logger.New(logger.Options{Output: io.Discard})).LoadGameState(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, stored.InteractionStats.ButtonClicks)
	assert.Equal(t, s.TotalPoints(), stored.TotalPoints)
}

func TestSession_TrackInteractionCounts(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s, err := f.registry.Open(ctx, device)
	require.NoError(t, err)

	s.TrackInteraction(ctx, gamification.ButtonClicks, 0)
	assert.Equal(t, 1, s.Snapshot().InteractionStats.ButtonClicks)

	assert.Empty(t, s.TrackInteraction(ctx, gamification.ButtonClicks, -2))
	assert.Equal(t, 1, s.Snapshot().InteractionStats.ButtonClicks)

	s.TrackInteraction(ctx, gamification.ButtonClicks, 3)
	assert.Equal(t, 4, s.Snapshot().InteractionStats.ButtonClicks)
}
