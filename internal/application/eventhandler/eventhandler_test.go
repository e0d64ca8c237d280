package eventhandler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mangopixel04/portfliomango/internal/application/tracker"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/messaging"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/memory"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// stillClock never fires timers, so the first notification stays active.
type stillClock struct{}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (stillClock) Now() time.Time                                     { return t0 }
func (stillClock) AfterFunc(time.Duration, func()) notification.Timer { return noopTimer{} }

type queues map[shared.DeviceID]*notification.Queue

func (q queues) Queue(d shared.DeviceID) (*notification.Queue, bool) {
	queue, ok := q[d]
	return queue, ok
}

type gate map[string]bool

func (g gate) IsEnabled(_, device string) bool { return g[device] }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func unlockEvent(device string, a gamification.Achievement) shared.AchievementUnlockedEvent {
	return shared.NewAchievementUnlockedEvent(device, a.ID, a.Title, a.Description, a.Icon,
		string(a.Category), a.Points, a)
}

func TestOnAchievementUnlocked_ShowsNotification(t *testing.T) {
	q := notification.NewQueue(notification.Config{Clock: stillClock{}})
	h := NewOnAchievementUnlockedHandler(queues{"device-1": q}, nil, "", quiet())

	a, ok := gamification.LookupAchievement(gamification.AchievementFirstVisitor)
	require.True(t, ok)
	require.NoError(t, h.Handle(unlockEvent("device-1", a)))

	active, ok := q.Active()
	require.True(t, ok)
	assert.Equal(t, gamification.AchievementFirstVisitor, active.Achievement.ID)
	assert.Contains(t, active.ID, "achievement-"+gamification.AchievementFirstVisitor+"-")
}

func TestOnAchievementUnlocked_SkipsUnknownDeviceAndDisabledFlag(t *testing.T) {
	q := notification.NewQueue(notification.Config{Clock: stillClock{}})
	h := NewOnAchievementUnlockedHandler(queues{"device-1": q}, gate{"device-1": false}, "flag", quiet())

	a, _ := gamification.LookupAchievement(gamification.AchievementFirstVisitor)
	require.NoError(t, h.Handle(unlockEvent("device-1", a)))
	require.NoError(t, h.Handle(unlockEvent("device-2", a)))

	assert.Empty(t, q.History())
}

// payloadOnly mimics an event replayed from another instance.
type payloadOnly struct {
	shared.BaseEvent
	payload map[string]any
}

func (p payloadOnly) Payload() map[string]any { return p.payload }

func TestOnAchievementUnlocked_FallsBackToCatalog(t *testing.T) {
	q := notification.NewQueue(notification.Config{Clock: stillClock{}})
	h := NewOnAchievementUnlockedHandler(queues{"device-1": q}, nil, "", quiet())

	ev := payloadOnly{
		BaseEvent: shared.NewBaseEvent(shared.EventAchievementUnlocked, "device-1"),
		payload:   map[string]any{"achievement_id": gamification.AchievementFirstVisitor},
	}
	require.NoError(t, h.Handle(ev))

	active, ok := q.Active()
	require.True(t, ok)
	assert.True(t, active.Achievement.IsUnlocked)
	require.NotNil(t, active.Achievement.UnlockedAt)

	ev.payload = map[string]any{"achievement_id": "nope"}
	require.NoError(t, h.Handle(ev))
	assert.Len(t, q.History(), 1)
}

func TestUnlockFlow_ThroughBusAndTracker(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{Logger: quiet()})
	defer bus.Close()

	registry := tracker.NewRegistry(memory.NewDeviceStore(), bus, nil,
		tracker.Config{Clock: stillClock{}},
		logger.New(logger.Options{Output: io.Discard}))

	dispatcher := messaging.NewDispatcher(bus, quiet(), 10)
	require.NoError(t, RegisterAll(dispatcher,
		NewOnAchievementUnlockedHandler(registry, nil, "", quiet()),
		NewOnContactReceivedHandler(quiet())))

	ctx := context.Background()
	session, err := registry.Open(ctx, "device-0001")
	require.NoError(t, err)

	unlocked := session.TrackSectionVisit(ctx, "home", "Home")
	require.NotEmpty(t, unlocked)

	snap := session.Notifications().Snapshot()
	require.NotNil(t, snap.Active)
	assert.Equal(t, unlocked[0].ID, snap.Active.Achievement.ID)
	assert.Len(t, snap.History, len(unlocked))

	require.NoError(t, bus.Publish(shared.NewContactReceivedEvent("msg-1", "Ada", "ada@example.com", "web")))
	assert.Empty(t, dispatcher.Failures())
}
