// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"

	"github.com/Mangopixel04/portfliomango/internal/application/tracker"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD GAME EVENT COMMAND
// Feeds one visitor action into the device's session.
// ══════════════════════════════════════════════════════════════════════════════

// SessionOpener opens or finds the live session of a device.
type SessionOpener interface {
	Open(ctx context.Context, device shared.DeviceID) (*tracker.Session, error)
}

// SessionEnder closes a device's live session.
type SessionEnder interface {
	End(ctx context.Context, device shared.DeviceID) bool
}

// Sessions is what the gamification commands need from the registry.
type Sessions interface {
	SessionOpener
	SessionEnder
}

// RecordGameEventCommand carries one event for one device.
type RecordGameEventCommand struct {
	Device shared.DeviceID
	Event  gamification.Event
}

// Validate rejects unknown event types and events missing their fields.
func (c RecordGameEventCommand) Validate() error {
	if !c.Device.IsValid() {
		return shared.ErrInvalidDeviceID
	}
	return c.Event.Validate()
}

// GameSummary is the visitor-facing digest of a state.
type GameSummary struct {
	TotalPoints          int                             `json:"totalPoints"`
	Level                int                             `json:"level"`
	Experience           gamification.ExperienceProgress `json:"experience"`
	UnlockedAchievements []string                        `json:"unlockedAchievements"`
	Progress             gamification.Progress           `json:"progress"`
}

// RecordGameEventResult lists what the event unlocked.
type RecordGameEventResult struct {
	Unlocked []gamification.Achievement `json:"unlocked"`
	Summary  GameSummary                `json:"summary"`
	// Ended is set when the event closed the session.
	Ended bool `json:"ended"`
}

// RecordGameEventHandler handles RecordGameEventCommand.
type RecordGameEventHandler struct {
	sessions Sessions
}

func NewRecordGameEventHandler(sessions Sessions) *RecordGameEventHandler {
	return &RecordGameEventHandler{sessions: sessions}
}

// Handle routes the event. RESET_STATE goes through ResetProgress so the
// stored records are cleared, and SESSION_END closes the session.
func (h *RecordGameEventHandler) Handle(ctx context.Context, cmd RecordGameEventCommand) (*RecordGameEventResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_game_event: %w", err)
	}

	session, err := h.sessions.Open(ctx, cmd.Device)
	if err != nil {
		return nil, fmt.Errorf("record_game_event: open session: %w", err)
	}

	result := &RecordGameEventResult{Unlocked: []gamification.Achievement{}}
	switch cmd.Event.Type {
	case gamification.EventResetState:
		session.ResetProgress(ctx)
	case gamification.EventSessionEnd:
		result.Ended = h.sessions.End(ctx, cmd.Device)
	default:
		if unlocked := session.Dispatch(ctx, cmd.Event); unlocked != nil {
			result.Unlocked = unlocked
		}
	}

	result.Summary = Summarize(session)
	return result, nil
}

// Summarize builds the GameSummary of a session.
func Summarize(s *tracker.Session) GameSummary {
	state := s.Snapshot()
	return GameSummary{
		TotalPoints:          state.TotalPoints,
		Level:                state.Level,
		Experience:           gamification.ExperienceProgressOf(state),
		UnlockedAchievements: state.UnlockedAchievements,
		Progress:             gamification.ProgressOf(state),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressHandler wipes a device's progress.
type ResetProgressHandler struct {
	sessions SessionOpener
}

func NewResetProgressHandler(sessions SessionOpener) *ResetProgressHandler {
	return &ResetProgressHandler{sessions: sessions}
}

func (h *ResetProgressHandler) Handle(ctx context.Context, device shared.DeviceID) (*GameSummary, error) {
	session, err := h.sessions.Open(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("reset_progress: %w", err)
	}
	session.ResetProgress(ctx)
	summary := Summarize(session)
	return &summary, nil
}
