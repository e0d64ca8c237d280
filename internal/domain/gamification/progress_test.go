package gamification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressOf_FreshState(t *testing.T) {
	p := ProgressOf(NewGameState(t0))

	assert.Equal(t, 0, p.Overall)
	assert.Empty(t, p.Sections)
	assert.Equal(t, 0, p.Achievements)
	assert.Equal(t, 0, p.Interactions)
}

func TestProgressOf(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, SectionVisit("hero", "Hero", t0))
	s = Reduce(s, SectionVisit("about", "About", t0))
	s = Reduce(s, SectionVisit("about", "About", t0))
	s = Reduce(s, SectionVisit("home", "Home", t0))
	s = Reduce(s, Interaction(ButtonClicks, 10, t0))
	s = Reduce(s, AchievementUnlock(AchievementFirstVisitor, t0))
	s = Reduce(s, AchievementUnlock(AchievementFirstClick, t0))
	s = Reduce(s, AchievementUnlock(AchievementSectionExplorer, t0))
	s = Reduce(s, AchievementUnlock(AchievementDeepDiver, t0))

	p := ProgressOf(s)

	// sections 2/5 = 40, achievements 4/16 = 25, interactions 10/50 = 20
	assert.Equal(t, 28, p.Overall)
	assert.Equal(t, 25, p.Achievements)
	assert.Equal(t, 20, p.Interactions)
	assert.InDelta(t, 33.33, p.Sections["hero"], 0.01)
	assert.InDelta(t, 66.67, p.Sections["about"], 0.01)
	assert.InDelta(t, 33.33, p.Sections["home"], 0.01)
}

func TestProgressOf_CapsAtHundred(t *testing.T) {
	s := NewGameState(t0)
	for i := 0; i < 5; i++ {
		s = Reduce(s, SectionVisit("hero", "Hero", t0))
	}
	s = Reduce(s, Interaction(LinkClicks, 400, t0))

	p := ProgressOf(s)
	assert.Equal(t, 100.0, p.Sections["hero"])
	assert.Equal(t, 100, p.Interactions)
}

func TestCompletionScore_IgnoresCompletionist(t *testing.T) {
	s := NewGameState(t0)
	for _, a := range s.Achievements {
		if a.ID != AchievementCompletionist {
			s = Reduce(s, AchievementUnlock(a.ID, t0))
		}
	}
	for _, id := range MainSections {
		s = Reduce(s, SectionVisit(id, id, t0))
	}
	s = Reduce(s, Interaction(VoiceCommands, InteractionGoal, t0))

	assert.Equal(t, 100, CompletionScore(s))
	assert.Less(t, ProgressOf(s).Overall, 100)
}

// ═══════════════════════════════════════════════════════════════════════════
// Visitor return
// ═══════════════════════════════════════════════════════════════════════════

func TestUpdateVisitorStatsForReturn_ExtendsStreak(t *testing.T) {
	stats := NewGameState(t0).VisitorStats
	next := t0.Add(24 * time.Hour)

	got := UpdateVisitorStatsForReturn(stats, next)

	assert.Equal(t, 2, got.TotalVisits)
	assert.Equal(t, 2, got.ConsecutiveVisits)
	assert.Equal(t, next, got.LastVisit)
	assert.Equal(t, next, got.CurrentSessionStart)
	assert.Equal(t, t0, got.FirstVisit)
	assert.True(t, got.ReturningVisitor)
	assert.Equal(t, []string{"2026-05-04", "2026-05-05"}, got.UniqueDaysVisited.Sorted())

	assert.Equal(t, []string{"2026-05-04"}, stats.UniqueDaysVisited.Sorted(), "input untouched")
}

func TestUpdateVisitorStatsForReturn_ResetsStreakAfterGap(t *testing.T) {
	stats := NewGameState(t0).VisitorStats
	stats.ConsecutiveVisits = 4

	got := UpdateVisitorStatsForReturn(stats, t0.Add(72*time.Hour))

	assert.Equal(t, 1, got.ConsecutiveVisits)
	assert.Equal(t, 2, got.TotalVisits)
}

func TestUpdateVisitorStatsForReturn_SameDayWithoutYesterday(t *testing.T) {
	stats := NewGameState(t0).VisitorStats
	got := UpdateVisitorStatsForReturn(stats, t0.Add(time.Hour))

	assert.Equal(t, 1, got.ConsecutiveVisits)
	assert.Len(t, got.UniqueDaysVisited, 1)
}

func TestResumeSession(t *testing.T) {
	stored, _ := Apply(NewGameState(t0), SectionVisit("home", "Home", t0))
	later := t0.Add(48 * time.Hour)

	s := ResumeSession(stored, later)
	assert.False(t, s.IsFirstTimeUser)
	assert.Equal(t, later, s.SessionStartTime)
	assert.Equal(t, 2, s.VisitorStats.TotalVisits)
	assert.Equal(t, stored.TotalPoints, s.TotalPoints)
}

func TestDateSet_JSON(t *testing.T) {
	set := NewDateSet("2026-01-02", "2026-01-01")
	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["2026-01-01","2026-01-02"]`, string(data))

	var back DateSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, set, back)
}

func TestEventValidate(t *testing.T) {
	assert.NoError(t, SectionVisit("hero", "Hero", t0).Validate())
	assert.NoError(t, FormSubmit("contact", t0).Validate())
	assert.Error(t, SectionVisit("", "Hero", t0).Validate())
	assert.Error(t, Interaction("nope", 1, t0).Validate())
	assert.Error(t, TimeSpent("hero", -1, t0).Validate())
	assert.Error(t, AchievementUnlock("", t0).Validate())
	assert.Error(t, Event{Type: "DANCE"}.Validate())
}
