package gamification

import (
	"math"
	"time"

	"github.com/Mangopixel04/portfliomango/pkg/timeutil"
)

// Observation is one (kind, target, value) sample of a counter.
type Observation struct {
	Kind   RequirementKind
	Target string
	Value  float64
}

// UpdateProgress feeds one observation into every locked achievement and
// returns the updated copy. A requirement matches when its kind equals kind
// and its target equals target, or its target is TargetTotal, or target is
// TargetAll. Matched values only ever grow. An achievement whose
// requirements are all met becomes unlocked with UnlockedAt set to now.
// Unlocked achievements are returned unchanged.
func UpdateProgress(achievements []Achievement, kind RequirementKind, target string, value float64, now time.Time) []Achievement {
	out := make([]Achievement, len(achievements))
	for i, a := range achievements {
		out[i] = a.clone()
	}
	observe(out, Observation{Kind: kind, Target: target, Value: value}, now)
	return out
}

// RequirementsMet reports whether every requirement of a is met.
func RequirementsMet(a Achievement) bool {
	for _, r := range a.Requirements {
		if !r.Met() {
			return false
		}
	}
	return true
}

func (r Requirement) matches(o Observation) bool {
	if r.Kind != o.Kind {
		return false
	}
	return r.Target == o.Target || r.Target == TargetTotal || o.Target == TargetAll
}

// observe mutates achievements in place.
func observe(achievements []Achievement, o Observation, now time.Time) {
	for i := range achievements {
		a := &achievements[i]
		if a.IsUnlocked {
			continue
		}
		for j := range a.Requirements {
			r := &a.Requirements[j]
			if r.matches(o) {
				r.CurrentValue = math.Max(r.CurrentValue, o.Value)
			}
		}
		if RequirementsMet(*a) {
			at := now.UTC()
			a.IsUnlocked = true
			a.UnlockedAt = &at
		}
	}
}

// Observations derives every counter sample the catalog listens to.
func Observations(s GameState, now time.Time) []Observation {
	obs := make([]Observation, 0, len(s.SectionProgress)+len(InteractionTypes)+12)

	for _, sec := range s.SectionProgress {
		obs = append(obs, Observation{RequirementSectionVisit, sec.SectionID, float64(sec.Visits)})
	}
	obs = append(obs,
		Observation{RequirementSectionVisit, TargetAllSections, float64(len(s.SectionProgress))},
		Observation{RequirementTimeSpent, TargetTotal, totalTimeSpent(s, now)},
	)
	if visitedMainSectionsFast(s) {
		obs = append(obs, Observation{RequirementTimeSpent, TargetAllSectionsFast, SpeedReaderWindow.Seconds()})
	}

	for _, t := range InteractionTypes {
		v, _ := s.InteractionStats.Get(t)
		obs = append(obs, Observation{RequirementInteractionCount, string(t), float64(v)})
	}
	obs = append(obs,
		Observation{RequirementInteractionCount, TargetTotalInteractions, float64(s.InteractionStats.Total())},
		Observation{RequirementInteractionCount, TargetAchievementsUnlocked, unlockedPercentage(s, "")},
		Observation{RequirementSkillHover, TargetSkills, float64(s.InteractionStats.SkillHovers)},
		Observation{RequirementProjectView, TargetAllProjects, float64(s.InteractionStats.ProjectViews)},
		Observation{RequirementContactForm, TargetContact, float64(s.InteractionStats.FormSubmissions)},
		Observation{RequirementConsecutiveVisits, TargetTotal, float64(s.VisitorStats.TotalVisits)},
		Observation{RequirementSectionVisit, TargetAllSectionsComplete, float64(CompletionScore(s))},
	)
	return obs
}

// Evaluate feeds the current counters to the evaluator and credits every
// achievement that became unlocked, repeating until a pass unlocks nothing
// so that achievements observing other unlocks see them in the same call.
// The returned slice lists the new unlocks in unlock order.
func Evaluate(s GameState, now time.Time) (GameState, []Achievement) {
	next := s.Clone()
	unlocked := next.evaluate(now)
	return next, unlocked
}

func (s *GameState) evaluate(now time.Time) []Achievement {
	var unlocked []Achievement
	for {
		for _, o := range Observations(*s, now) {
			observe(s.Achievements, o, now)
		}

		fresh := 0
		for _, a := range s.Achievements {
			if a.IsUnlocked && !s.IsUnlocked(a.ID) {
				s.credit(a)
				unlocked = append(unlocked, a.clone())
				fresh++
			}
		}
		if fresh == 0 {
			return unlocked
		}
	}
}

// totalTimeSpent is the stored total plus the running session.
func totalTimeSpent(s GameState, now time.Time) float64 {
	return s.VisitorStats.TotalTimeSpent + timeutil.SecondsBetween(s.VisitorStats.CurrentSessionStart, now)
}

// visitedMainSectionsFast reports whether every main section was visited
// in this session within SpeedReaderWindow of the session start.
func visitedMainSectionsFast(s GameState) bool {
	start := s.SessionStartTime
	deadline := start.Add(SpeedReaderWindow)
	for _, id := range MainSections {
		sec, ok := s.Section(id)
		if !ok || sec.LastVisited.Before(start) || sec.LastVisited.After(deadline) {
			return false
		}
	}
	return true
}

// unlockedPercentage is the share of unlocked achievements, ignoring the
// achievement named by exclude.
func unlockedPercentage(s GameState, exclude string) float64 {
	total, unlocked := 0, 0
	for _, a := range s.Achievements {
		if a.ID == exclude {
			continue
		}
		total++
		if a.IsUnlocked {
			unlocked++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(unlocked) / float64(total) * 100
}
