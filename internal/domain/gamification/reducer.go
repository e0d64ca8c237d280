package gamification

import (
	"time"

	"github.com/Mangopixel04/portfliomango/pkg/timeutil"
)

// Reduce returns the state that results from applying ev to state. It never
// mutates state and never evaluates achievements; see Apply for that.
//
// Malformed events are no-ops: unknown interaction types, negative counts
// and unknown or already unlocked achievement ids leave the state as is.
func Reduce(state GameState, ev Event) GameState {
	at := ev.OccurredAt.UTC()

	switch ev.Type {
	case EventSectionVisit:
		if ev.SectionID == "" {
			return state
		}
		next := state.Clone()
		next.visitSection(ev.SectionID, ev.SectionName, at)
		return next

	case EventInteraction:
		if !ev.InteractionType.IsValid() || ev.Count < 0 {
			return state
		}
		count := ev.Count
		if count == 0 {
			count = 1
		}
		next := state.Clone()
		next.recordInteraction(ev.InteractionType, count)
		if ev.SectionID != "" {
			if i := next.sectionIndex(ev.SectionID); i >= 0 {
				next.SectionProgress[i].Interactions++
			}
		}
		return next

	case EventTimeSpent:
		if ev.SectionID == "" || ev.TimeSpent < 0 {
			return state
		}
		next := state.Clone()
		next.addSectionTime(ev.SectionID, ev.TimeSpent, at)
		return next

	case EventProjectView:
		next := state.Clone()
		next.InteractionStats.ProjectViews++
		return next

	case EventFormSubmit:
		next := state.Clone()
		next.InteractionStats.FormSubmissions++
		return next

	case EventAchievementUnlock:
		next := state.Clone()
		if !next.award(ev.AchievementID, at) {
			return state
		}
		return next

	case EventResetState:
		return NewGameState(at)

	case EventSessionEnd:
		next := state.Clone()
		next.endSession(at)
		return next

	default:
		// SESSION_START and unknown types carry no state change.
		return state
	}
}

// Apply reduces ev and then evaluates achievements against the result. It
// returns the achievements that became unlocked, in unlock order, whether
// through ACHIEVEMENT_UNLOCK or through the evaluator.
func Apply(state GameState, ev Event) (GameState, []Achievement) {
	next := Reduce(state, ev)

	var unlocked []Achievement
	if ev.Type == EventAchievementUnlock && !state.IsUnlocked(ev.AchievementID) {
		if a, ok := next.Achievement(ev.AchievementID); ok && a.IsUnlocked {
			unlocked = append(unlocked, a.clone())
		}
	}

	next = next.Clone()
	unlocked = append(unlocked, next.evaluate(ev.OccurredAt.UTC())...)
	return next, unlocked
}

// ═══════════════════════════════════════════════════════════════════════════
// mutators (receiver is always a fresh clone)
// ═══════════════════════════════════════════════════════════════════════════

func (s *GameState) visitSection(id, name string, at time.Time) {
	if i := s.sectionIndex(id); i >= 0 {
		sec := &s.SectionProgress[i]
		sec.Visits++
		sec.LastVisited = at
		sec.Completed = sec.Completed || sec.Visits >= SectionCompletionVisits
		return
	}
	if name == "" {
		name = id
	}
	s.SectionProgress = append(s.SectionProgress, SectionProgress{
		SectionID:   id,
		SectionName: name,
		Visits:      1,
		LastVisited: at,
	})
}

func (s *GameState) addSectionTime(id string, seconds float64, at time.Time) {
	if i := s.sectionIndex(id); i >= 0 {
		s.SectionProgress[i].TimeSpent += seconds
		return
	}
	s.SectionProgress = append(s.SectionProgress, SectionProgress{
		SectionID:   id,
		SectionName: id,
		Visits:      1,
		TimeSpent:   seconds,
		LastVisited: at,
	})
}

func (s *GameState) recordInteraction(t InteractionType, count int) {
	c := s.InteractionStats.counter(t)
	if t == ScrollDepth {
		// Depth is a position, keep the deepest one.
		if count > *c {
			*c = count
		}
		return
	}
	*c += count
}

// endSession folds the running session into TotalTimeSpent and restarts
// the session clock so the same span is never counted twice.
func (s *GameState) endSession(at time.Time) {
	s.VisitorStats.TotalTimeSpent += timeutil.SecondsBetween(s.VisitorStats.CurrentSessionStart, at)
	if at.After(s.VisitorStats.CurrentSessionStart) {
		s.VisitorStats.CurrentSessionStart = at
	}
}

// award unlocks id directly. It reports false for unknown or already
// unlocked ids.
func (s *GameState) award(id string, at time.Time) bool {
	for i := range s.Achievements {
		a := &s.Achievements[i]
		if a.ID != id {
			continue
		}
		if a.IsUnlocked || s.IsUnlocked(id) {
			return false
		}
		a.IsUnlocked = true
		a.UnlockedAt = &at
		s.credit(*a)
		return true
	}
	return false
}

// credit adds the reward of a just unlocked achievement.
func (s *GameState) credit(a Achievement) {
	s.TotalPoints += a.Points
	s.ExperiencePoints += a.Points
	s.Level, s.ExperienceToNextLevel = Advance(s.Level, s.ExperiencePoints)
	s.UnlockedAchievements = append(s.UnlockedAchievements, a.ID)
}
