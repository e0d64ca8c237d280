package gamification

// ExperienceThresholds holds the experience needed for levels 1 through 10.
var ExperienceThresholds = []int{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 12000}

// MaxLevel is the last level of the threshold table.
func MaxLevel() int {
	return len(ExperienceThresholds)
}

// Advance walks the threshold table up from level while xp reaches the next
// threshold. It never lowers the level. The second result is the experience
// still needed for the next level, or 0 at the last level.
func Advance(level, xp int) (int, int) {
	if level < 1 {
		level = 1
	}
	for level < len(ExperienceThresholds) && xp >= ExperienceThresholds[level] {
		level++
	}
	if level >= len(ExperienceThresholds) {
		return len(ExperienceThresholds), 0
	}
	return level, ExperienceThresholds[level] - xp
}

// LevelFor returns the level and remaining experience for a total of xp.
func LevelFor(xp int) (int, int) {
	return Advance(1, xp)
}

// ExperienceProgress describes how far a visitor is into the current level.
type ExperienceProgress struct {
	Current    int     `json:"current"`
	Needed     int     `json:"needed"`
	Percentage float64 `json:"percentage"`
}

// ExperienceProgressOf reports experience against the gap to the next level.
func ExperienceProgressOf(s GameState) ExperienceProgress {
	current := s.ExperiencePoints
	needed := s.ExperienceToNextLevel
	total := current + needed

	var pct float64
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	return ExperienceProgress{Current: current, Needed: needed, Percentage: pct}
}
