package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mangopixel04/portfliomango/internal/domain/gamification"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

// Storage keys inside a device namespace.
const (
	GameStateKey    = "portfolio_gamification_state"
	VisitorStatsKey = "portfolio_visitor_stats"
	LegacyKey       = "portfolio_game_data"
)

// KeyValueStore is a string store partitioned by device.
// Implementations live in the memory, redis and postgres packages.
type KeyValueStore interface {
	Get(ctx context.Context, device, key string) (value string, found bool, err error)
	Set(ctx context.Context, device, key, value string) error
	// Remove deletes keys in a single operation. Missing keys are ignored.
	Remove(ctx context.Context, device string, keys ...string) error
}

// Store reads and writes one device's progress records.
type Store struct {
	kv     KeyValueStore
	device string
	log    *logger.Logger
}

// NewStore binds a store to a device namespace.
func NewStore(kv KeyValueStore, device shared.DeviceID, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		kv:     kv,
		device: device.String(),
		log:    log.With(logger.Component("progress_store"), logger.DeviceID(device.String())),
	}
}

// SaveGameState writes the full game state record.
func (s *Store) SaveGameState(ctx context.Context, state gamification.GameState) error {
	return s.save(ctx, GameStateKey, GameStateSchema, state)
}

// LoadGameState returns the stored game state. A missing, unreadable or
// invalid record reports false; an invalid record is also removed.
func (s *Store) LoadGameState(ctx context.Context) (gamification.GameState, bool) {
	var state gamification.GameState
	if !s.load(ctx, GameStateKey, GameStateSchema, &state) {
		return gamification.GameState{}, false
	}
	if state.SectionProgress == nil {
		state.SectionProgress = []gamification.SectionProgress{}
	}
	if state.UnlockedAchievements == nil {
		state.UnlockedAchievements = []string{}
	}
	return state, true
}

// SaveVisitorStats writes the standalone visitor stats record.
func (s *Store) SaveVisitorStats(ctx context.Context, stats gamification.VisitorStats) error {
	return s.save(ctx, VisitorStatsKey, VisitorStatsSchema, stats)
}

// LoadVisitorStats returns the stored visitor stats, with the same failure
// handling as LoadGameState.
func (s *Store) LoadVisitorStats(ctx context.Context) (gamification.VisitorStats, bool) {
	var stats gamification.VisitorStats
	if !s.load(ctx, VisitorStatsKey, VisitorStatsSchema, &stats) {
		return gamification.VisitorStats{}, false
	}
	return stats, true
}

// ClearAllData removes both progress records.
func (s *Store) ClearAllData(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.device, GameStateKey, VisitorStatsKey); err != nil {
		s.log.Warn("failed to clear progress data", logger.Err(err))
		return fmt.Errorf("%w: %v", shared.ErrProgressWriteFailed, err)
	}
	return nil
}

// MigrateIfNeeded drops the legacy record when no current game state exists.
// The legacy layout is not converted.
func (s *Store) MigrateIfNeeded(ctx context.Context) {
	_, legacy, err := s.kv.Get(ctx, s.device, LegacyKey)
	if err != nil {
		s.log.Warn("legacy data check failed", logger.Err(err))
		return
	}
	if !legacy {
		return
	}

	_, current, err := s.kv.Get(ctx, s.device, GameStateKey)
	if err != nil {
		s.log.Warn("legacy data check failed", logger.Err(err))
		return
	}
	if current {
		return
	}

	s.log.Info("migrating legacy gamification data", logger.StorageKey(LegacyKey))
	if err := s.kv.Remove(ctx, s.device, LegacyKey); err != nil {
		s.log.Warn("failed to remove legacy data", logger.Err(err))
	}
}

func (s *Store) save(ctx context.Context, key string, schema Schema, v any) error {
	data, err := Encode(schema, v)
	if err == nil {
		err = s.kv.Set(ctx, s.device, key, string(data))
	}
	if err != nil {
		s.log.Warn("failed to save progress record", logger.StorageKey(key), logger.Err(err))
		return fmt.Errorf("%w: %s: %v", shared.ErrProgressWriteFailed, key, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, schema Schema, dst any) bool {
	raw, found, err := s.kv.Get(ctx, s.device, key)
	if err != nil {
		s.log.Warn("failed to read progress record", logger.StorageKey(key), logger.Err(err))
		return false
	}
	if !found || raw == "" {
		return false
	}

	if err := Decode(schema, []byte(raw), dst); err != nil {
		if errors.Is(err, shared.ErrCorruptRecord) {
			s.log.Warn("discarding invalid progress record", logger.StorageKey(key), logger.Err(err))
		}
		if rmErr := s.kv.Remove(ctx, s.device, key); rmErr != nil {
			s.log.Warn("failed to remove invalid progress record", logger.StorageKey(key), logger.Err(rmErr))
		}
		return false
	}
	return true
}
