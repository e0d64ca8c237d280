// Package tracker hosts one gamification session per device. A Session owns
// the device's GameState, applies events one at a time, persists the result
// and announces unlocks on the event bus.
package tracker

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/Mangopixel04/portfliomango/config"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

// MinSectionDwell is the shortest stay in a section that is reported as
// time spent.
const MinSectionDwell = time.Second

// Session is the event loop of one device. Every mutation holds mu, so
// events for a device are applied strictly in arrival order.
type Session struct {
	mu       sync.Mutex
	device   shared.DeviceID
	state    gamification.GameState
	saves    *saver
	queue    *notification.Queue
	bus      shared.EventPublisher
	presence portfolio.PresenceCounter
	clock    notification.Clock
	flags    FeatureGate
	log      *logger.Logger

	lastActive time.Time
	// sectionEntered holds the entry time of sections currently in view.
	sectionEntered map[string]time.Time
}

// FeatureGate answers per-device feature flag checks.
type FeatureGate interface {
	IsEnabled(name, device string) bool
}

func (s *Session) Device() shared.DeviceID { return s.device }

func (s *Session) enabled(flag string) bool {
	return s.flags == nil || s.flags.IsEnabled(flag, s.device.String())
}

// Notifications is the device's notification queue.
func (s *Session) Notifications() *notification.Queue { return s.queue }

// ═══════════════════════════════════════════════════════════════════════════
// EVENT LOOP
// ═══════════════════════════════════════════════════════════════════════════

// Dispatch applies ev and returns the achievements it unlocked. The session
// clock stamps every event; a caller's OccurredAt is discarded so time-based
// achievements only see time the server measured. Records are written in the
// background and persistence failures are logged, never returned.
func (s *Session) Dispatch(ctx context.Context, ev gamification.Event) []gamification.Achievement {
	if ev.Type == gamification.EventInteraction && ev.InteractionType == gamification.VoiceCommands &&
		!s.enabled(config.FeatureVoiceCommands) {
		return nil
	}

	s.mu.Lock()
	ev.OccurredAt = s.clock.Now()
	prev := s.state
	next, unlocked := gamification.Apply(prev, ev)
	s.state = next
	s.lastActive = ev.OccurredAt
	s.persistLocked(ctx, ev.Type == gamification.EventResetState)
	s.mu.Unlock()

	s.touchPresence(ctx)
	s.announce(prev, next, ev, unlocked)
	return unlocked
}

// persistLocked queues a write of the current state. Scheduling under mu
// keeps writes in the order the events were applied.
func (s *Session) persistLocked(ctx context.Context, clear bool) {
	if !clear && s.state.VisitorStats.TotalVisits <= 0 {
		return
	}
	s.saves.schedule(ctx, saveJob{
		state: s.state.Clone(),
		stats: s.enabled(config.FeatureVisitorStats),
		clear: clear,
	})
}

// Flush waits until every queued write has reached the store.
func (s *Session) Flush() { s.saves.flush() }

func (s *Session) touchPresence(ctx context.Context) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Touch(ctx, s.device.String()); err != nil {
		s.log.Debug("presence touch failed", logger.Err(err))
	}
}

func (s *Session) announce(prev, next gamification.GameState, ev gamification.Event, unlocked []gamification.Achievement) {
	if s.bus == nil {
		return
	}
	publish := func(e shared.Event) {
		if err := s.bus.Publish(e); err != nil {
			s.log.Warn("failed to publish event", logger.EventType(string(e.EventType())), logger.Err(err))
		}
	}

	device := s.device.String()
	for _, a := range unlocked {
		s.log.Info("achievement unlocked", logger.AchievementID(a.ID), logger.Points(a.Points))
		publish(shared.NewAchievementUnlockedEvent(device, a.ID, a.Title, a.Description, a.Icon,
			string(a.Category), a.Points, a))
	}
	if next.Level > prev.Level && ev.Type != gamification.EventResetState {
		publish(shared.NewLevelUpEvent(device, prev.Level, next.Level, next.TotalPoints))
	}
	if ev.Type == gamification.EventResetState {
		publish(shared.NewProgressResetEvent(device))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// TRACKING API
// ═══════════════════════════════════════════════════════════════════════════

func (s *Session) TrackSectionVisit(ctx context.Context, sectionID, sectionName string) []gamification.Achievement {
	return s.Dispatch(ctx, gamification.SectionVisit(sectionID, sectionName, s.clock.Now()))
}

// TrackInteraction counts count interactions of type t. A count of 0 counts
// as 1; negative counts are ignored.
func (s *Session) TrackInteraction(ctx context.Context, t gamification.InteractionType, count int) []gamification.Achievement {
	return s.Dispatch(ctx, gamification.Interaction(t, count, s.clock.Now()))
}

func (s *Session) TrackTimeSpent(ctx context.Context, sectionID string, seconds float64) []gamification.Achievement {
	return s.Dispatch(ctx, gamification.TimeSpent(sectionID, seconds, s.clock.Now()))
}

func (s *Session) TrackProjectView(ctx context.Context, projectID string) []gamification.Achievement {
	return s.Dispatch(ctx, gamification.ProjectView(projectID, s.clock.Now()))
}

func (s *Session) TrackFormSubmission(ctx context.Context, formType string) []gamification.Achievement {
	return s.Dispatch(ctx, gamification.FormSubmit(formType, s.clock.Now()))
}

// UnlockAchievement unlocks id directly. Unknown or already unlocked ids
// change nothing.
func (s *Session) UnlockAchievement(ctx context.Context, id string) []gamification.Achievement {
	return s.Dispatch(ctx, gamification.AchievementUnlock(id, s.clock.Now()))
}

// ResetProgress discards the device's progress, clears the stored records
// and starts over as a first-time visitor.
func (s *Session) ResetProgress(ctx context.Context) {
	s.mu.Lock()
	s.sectionEntered = make(map[string]time.Time)
	s.mu.Unlock()
	s.Dispatch(ctx, gamification.ResetState(s.clock.Now()))
}

// EndSession folds the running session time into the visitor totals.
func (s *Session) EndSession(ctx context.Context) {
	s.Dispatch(ctx, gamification.SessionEnd(s.clock.Now()))
}

// ═══════════════════════════════════════════════════════════════════════════
// BOUNDARY HELPERS
// ═══════════════════════════════════════════════════════════════════════════

// ClickTarget distinguishes the two click counters.
type ClickTarget string

const (
	ClickButton ClickTarget = "button"
	ClickLink   ClickTarget = "link"
)

// HoverTarget distinguishes the two hover counters.
type HoverTarget string

const (
	HoverSkill    HoverTarget = "skill"
	HoverMagnetic HoverTarget = "magnetic"
)

// EnterSection records a visit when the section comes into view and starts
// its dwell timer. Entering a section already in view does nothing.
func (s *Session) EnterSection(ctx context.Context, sectionID, sectionName string) []gamification.Achievement {
	s.mu.Lock()
	if _, in := s.sectionEntered[sectionID]; in || sectionID == "" {
		s.mu.Unlock()
		return nil
	}
	s.sectionEntered[sectionID] = s.clock.Now()
	s.mu.Unlock()

	return s.TrackSectionVisit(ctx, sectionID, sectionName)
}

// LeaveSection reports the time spent since EnterSection when it exceeds
// MinSectionDwell.
func (s *Session) LeaveSection(ctx context.Context, sectionID string) []gamification.Achievement {
	s.mu.Lock()
	since, in := s.sectionEntered[sectionID]
	delete(s.sectionEntered, sectionID)
	s.mu.Unlock()

	if !in {
		return nil
	}
	dwell := s.clock.Now().Sub(since)
	if dwell <= MinSectionDwell {
		return nil
	}
	return s.TrackTimeSpent(ctx, sectionID, dwell.Seconds())
}

func (s *Session) TrackClick(ctx context.Context, target ClickTarget) []gamification.Achievement {
	if target == ClickLink {
		return s.TrackInteraction(ctx, gamification.LinkClicks, 1)
	}
	return s.TrackInteraction(ctx, gamification.ButtonClicks, 1)
}

func (s *Session) TrackHover(ctx context.Context, target HoverTarget) []gamification.Achievement {
	if target == HoverMagnetic {
		return s.TrackInteraction(ctx, gamification.MagneticInteractions, 1)
	}
	return s.TrackInteraction(ctx, gamification.SkillHovers, 1)
}

// TrackScroll reports a scroll depth percentage, rounded to an integer.
func (s *Session) TrackScroll(ctx context.Context, depth float64) []gamification.Achievement {
	d := int(math.Round(depth))
	if d <= 0 {
		return nil
	}
	return s.TrackInteraction(ctx, gamification.ScrollDepth, d)
}

// TrackVoiceCommand counts a voice navigation command. Voice commands are
// dropped while the voice feature is off for the device.
func (s *Session) TrackVoiceCommand(ctx context.Context) []gamification.Achievement {
	return s.TrackInteraction(ctx, gamification.VoiceCommands, 1)
}

// SubmitForm counts a form submission and the button click that sent it.
func (s *Session) SubmitForm(ctx context.Context, formType string) []gamification.Achievement {
	unlocked := s.TrackFormSubmission(ctx, formType)
	return append(unlocked, s.TrackClick(ctx, ClickButton)...)
}

// ═══════════════════════════════════════════════════════════════════════════
// READ API
// ═══════════════════════════════════════════════════════════════════════════

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() gamification.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Session) IsAchievementUnlocked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsUnlocked(id)
}

// UnlockedAchievements returns the unlocked ids in unlock order.
func (s *Session) UnlockedAchievements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.state.UnlockedAchievements))
	copy(out, s.state.UnlockedAchievements)
	return out
}

func (s *Session) TotalPoints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalPoints
}

func (s *Session) CurrentLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Level
}

func (s *Session) ExperienceProgress() gamification.ExperienceProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gamification.ExperienceProgressOf(s.state)
}

func (s *Session) Progress() gamification.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gamification.ProgressOf(s.state)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
