package gamification

import "math"

// InteractionGoal is the interaction total that counts as 100%.
const InteractionGoal = 50

// Progress is a projection of GameState. It is never stored.
type Progress struct {
	Overall      int                `json:"overall"`
	Sections     map[string]float64 `json:"sections"`
	Achievements int                `json:"achievements"`
	Interactions int                `json:"interactions"`
}

// ProgressOf computes the progress projection of s.
//
//	sections     = main sections visited / len(MainSections)
//	achievements = unlocked / all achievements
//	interactions = min(total interactions / InteractionGoal, 1)
//	overall      = mean of the three, rounded
//
// Per-section values are min(visits / SectionCompletionVisits, 1) * 100.
func ProgressOf(s GameState) Progress {
	achievements := unlockedPercentage(s, "")
	interactions := interactionPercentage(s)

	sections := make(map[string]float64, len(s.SectionProgress))
	for _, sec := range s.SectionProgress {
		sections[sec.SectionID] = math.Min(float64(sec.Visits)/SectionCompletionVisits*100, 100)
	}

	return Progress{
		Overall:      overall(s, achievements, interactions),
		Sections:     sections,
		Achievements: int(math.Round(achievements)),
		Interactions: int(math.Round(interactions)),
	}
}

// CompletionScore is the overall percentage with the completionist
// achievement left out of the achievement share, so that completionist can
// unlock on reaching 100 without depending on itself.
func CompletionScore(s GameState) int {
	return overall(s, unlockedPercentage(s, AchievementCompletionist), interactionPercentage(s))
}

func overall(s GameState, achievements, interactions float64) int {
	return int(math.Round((sectionCoverage(s) + achievements + interactions) / 3))
}

func sectionCoverage(s GameState) float64 {
	visited := 0
	for _, id := range MainSections {
		if _, ok := s.Section(id); ok {
			visited++
		}
	}
	return float64(visited) / float64(len(MainSections)) * 100
}

func interactionPercentage(s GameState) float64 {
	return math.Min(float64(s.InteractionStats.Total())/InteractionGoal*100, 100)
}
