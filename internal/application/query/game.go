// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/Mangopixel04/portfliomango/internal/application/tracker"
	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME STATE QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// SessionOpener opens or finds the live session of a device.
type SessionOpener interface {
	Open(ctx context.Context, device shared.DeviceID) (*tracker.Session, error)
}

// GameQueries reads a device's state. Reading opens the session, which
// counts as a visit like loading the page does.
type GameQueries struct {
	sessions SessionOpener
}

func NewGameQueries(sessions SessionOpener) *GameQueries {
	return &GameQueries{sessions: sessions}
}

func (q *GameQueries) session(ctx context.Context, device shared.DeviceID) (*tracker.Session, error) {
	s, err := q.sessions.Open(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("game_query: %w", err)
	}
	return s, nil
}

// State returns a deep copy of the full GameState.
func (q *GameQueries) State(ctx context.Context, device shared.DeviceID) (gamification.GameState, error) {
	s, err := q.session(ctx, device)
	if err != nil {
		return gamification.GameState{}, err
	}
	return s.Snapshot(), nil
}

// ProgressView bundles the derived progress figures.
type ProgressView struct {
	Progress   gamification.Progress           `json:"progress"`
	Experience gamification.ExperienceProgress `json:"experience"`
	Level      int                             `json:"level"`
	Points     int                             `json:"totalPoints"`
}

func (q *GameQueries) Progress(ctx context.Context, device shared.DeviceID) (ProgressView, error) {
	s, err := q.session(ctx, device)
	if err != nil {
		return ProgressView{}, err
	}
	state := s.Snapshot()
	return ProgressView{
		Progress:   gamification.ProgressOf(state),
		Experience: gamification.ExperienceProgressOf(state),
		Level:      state.Level,
		Points:     state.TotalPoints,
	}, nil
}

// Notifications returns the active, pending and recent notifications.
func (q *GameQueries) Notifications(ctx context.Context, device shared.DeviceID) (notification.Snapshot, error) {
	s, err := q.session(ctx, device)
	if err != nil {
		return notification.Snapshot{}, err
	}
	return s.Notifications().Snapshot(), nil
}
