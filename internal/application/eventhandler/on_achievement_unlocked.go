// Package eventhandler reacts to domain events published on the bus. The
// handlers here turn gamification events into visitor-facing side effects
// such as unlock notifications.
package eventhandler

import (
	"log/slog"

	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT UNLOCKED
// Puts one notification per unlock on the device's queue.
// ═══════════════════════════════════════════════════════════════════════════

// QueueLocator finds the notification queue of a live device session.
type QueueLocator interface {
	Queue(device shared.DeviceID) (*notification.Queue, bool)
}

// FeatureGate answers per-device feature flag checks.
type FeatureGate interface {
	IsEnabled(name, device string) bool
}

// OnAchievementUnlockedHandler shows unlock notifications.
type OnAchievementUnlockedHandler struct {
	queues QueueLocator
	flags  FeatureGate
	flag   string
	logger *slog.Logger
}

// NewOnAchievementUnlockedHandler creates the handler. flags may be nil;
// otherwise notifications are shown only where flag is enabled.
func NewOnAchievementUnlockedHandler(queues QueueLocator, flags FeatureGate, flag string, logger *slog.Logger) *OnAchievementUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnAchievementUnlockedHandler{
		queues: queues,
		flags:  flags,
		flag:   flag,
		logger: logger.With("handler", "on_achievement_unlocked"),
	}
}

// Handle implements shared.EventHandler. Events for devices without a live
// session on this instance are skipped.
func (h *OnAchievementUnlockedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventAchievementUnlocked {
		return nil
	}
	device := shared.DeviceID(event.AggregateID())

	if h.flags != nil && !h.flags.IsEnabled(h.flag, device.String()) {
		h.logger.Debug("notifications disabled", "device_id", device)
		return nil
	}

	queue, ok := h.queues.Queue(device)
	if !ok {
		h.logger.Debug("no live session for device", "device_id", device)
		return nil
	}

	achievement, ok := achievementOf(event)
	if !ok {
		h.logger.Warn("unlock event without a known achievement",
			"device_id", device,
			"payload", event.Payload(),
		)
		return nil
	}

	n := queue.Show(achievement)
	h.logger.Info("unlock notification queued",
		"device_id", device,
		"achievement_id", achievement.ID,
		"notification_id", n.ID,
	)
	return nil
}

// achievementOf prefers the value carried in-process and falls back to the
// catalog entry named by the payload, for events replayed from Redis.
func achievementOf(event shared.Event) (gamification.Achievement, bool) {
	if e, ok := event.(shared.AchievementUnlockedEvent); ok {
		if a, ok := e.Achievement.(gamification.Achievement); ok {
			return a, true
		}
	}

	id, _ := event.Payload()["achievement_id"].(string)
	a, ok := gamification.LookupAchievement(id)
	if !ok {
		return gamification.Achievement{}, false
	}
	at := event.OccurredAt()
	a.IsUnlocked = true
	a.UnlockedAt = &at
	for i := range a.Requirements {
		a.Requirements[i].CurrentValue = a.Requirements[i].Threshold
	}
	return a, true
}
