package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func applyAll(t *testing.T, s GameState, events ...Event) (GameState, []Achievement) {
	t.Helper()
	var all []Achievement
	for _, ev := range events {
		var unlocked []Achievement
		s, unlocked = Apply(s, ev)
		all = append(all, unlocked...)
	}
	return s, all
}

func ids(as []Achievement) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}

func TestNewGameState(t *testing.T) {
	s := NewGameState(t0)

	assert.Equal(t, 1, s.VisitorStats.TotalVisits)
	assert.Equal(t, 1, s.VisitorStats.ConsecutiveVisits)
	assert.True(t, s.VisitorStats.UniqueDaysVisited.Has("2026-05-04"))
	assert.False(t, s.VisitorStats.ReturningVisitor)
	assert.True(t, s.IsFirstTimeUser)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 100, s.ExperienceToNextLevel)
	assert.Len(t, s.Achievements, CatalogSize())
	assert.NotNil(t, s.SectionProgress)
	assert.NotNil(t, s.UnlockedAchievements)
}

func TestReduce_SectionVisit(t *testing.T) {
	s := NewGameState(t0)

	s = Reduce(s, SectionVisit("about", "About", at(time.Second)))
	require.Len(t, s.SectionProgress, 1)
	sec := s.SectionProgress[0]
	assert.Equal(t, "about", sec.SectionID)
	assert.Equal(t, "About", sec.SectionName)
	assert.Equal(t, 1, sec.Visits)
	assert.Equal(t, 0, sec.Interactions)
	assert.Zero(t, sec.TimeSpent)
	assert.False(t, sec.Completed)

	s = Reduce(s, SectionVisit("about", "About", at(2*time.Second)))
	s = Reduce(s, SectionVisit("about", "About", at(3*time.Second)))
	sec, _ = s.Section("about")
	assert.Equal(t, 3, sec.Visits)
	assert.Equal(t, at(3*time.Second), sec.LastVisited)
	assert.True(t, sec.Completed)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, SectionVisit("hero", "Hero", at(time.Second)))

	before := s.Clone()
	_ = Reduce(s, SectionVisit("hero", "Hero", at(2*time.Second)))
	_ = Reduce(s, Interaction(ButtonClicks, 3, at(2*time.Second)))
	_, _ = Apply(s, AchievementUnlock(AchievementDeepDiver, at(2*time.Second)))

	assert.Equal(t, before, s)
}

func TestReduce_Interaction(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, Interaction(ButtonClicks, 0, t0))
	s = Reduce(s, Interaction(ButtonClicks, 2, t0))
	s = Reduce(s, Interaction(LinkClicks, 1, t0))

	assert.Equal(t, 3, s.InteractionStats.ButtonClicks)
	assert.Equal(t, 1, s.InteractionStats.LinkClicks)
	assert.Equal(t, 4, s.InteractionStats.Total())
}

func TestReduce_InteractionIgnoresInvalid(t *testing.T) {
	s := NewGameState(t0)
	assert.Equal(t, s, Reduce(s, Interaction("laserPointer", 1, t0)))
	assert.Equal(t, s, Reduce(s, Interaction(ButtonClicks, -4, t0)))
}

func TestReduce_ScrollDepthTracksMaximum(t *testing.T) {
	s := NewGameState(t0)
	for _, depth := range []int{20, 60, 40} {
		s = Reduce(s, Interaction(ScrollDepth, depth, t0))
	}

	assert.Equal(t, 60, s.InteractionStats.ScrollDepth)
	assert.Zero(t, s.InteractionStats.Total())
}

func TestReduce_SectionInteraction(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, SectionVisit("skills", "Skills", t0))
	s = Reduce(s, SectionInteraction(SkillHovers, "skills", t0))
	s = Reduce(s, SectionInteraction(SkillHovers, "missing", t0))

	sec, _ := s.Section("skills")
	assert.Equal(t, 1, sec.Interactions)
	assert.Equal(t, 2, s.InteractionStats.SkillHovers)
	assert.Len(t, s.SectionProgress, 1)
}

func TestReduce_TimeSpent(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, TimeSpent("projects", 12.5, t0))
	s = Reduce(s, TimeSpent("projects", 7.5, t0))

	sec, ok := s.Section("projects")
	require.True(t, ok)
	assert.Equal(t, "projects", sec.SectionName)
	assert.Equal(t, 20.0, sec.TimeSpent)
	assert.Equal(t, 1, sec.Visits)

	// Section time never reaches the visitor total; only closed sessions do.
	assert.Zero(t, s.VisitorStats.TotalTimeSpent)
	s = Reduce(s, SessionEnd(t0.Add(30*time.Second)))
	assert.Equal(t, 30.0, s.VisitorStats.TotalTimeSpent)
}

func TestReduce_ProjectViewAndFormSubmit(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, ProjectView("p-1", t0))
	s = Reduce(s, ProjectView("p-1", t0))
	s = Reduce(s, FormSubmit("contact", t0))

	assert.Equal(t, 2, s.InteractionStats.ProjectViews)
	assert.Equal(t, 1, s.InteractionStats.FormSubmissions)
}

func TestReduce_AchievementUnlock(t *testing.T) {
	s := NewGameState(t0)

	s = Reduce(s, AchievementUnlock(AchievementContactInitiator, at(time.Minute)))
	a, _ := s.Achievement(AchievementContactInitiator)
	assert.True(t, a.IsUnlocked)
	require.NotNil(t, a.UnlockedAt)
	assert.Equal(t, at(time.Minute), *a.UnlockedAt)
	assert.Equal(t, 100, s.TotalPoints)
	assert.Equal(t, 100, s.ExperiencePoints)
	assert.Equal(t, 2, s.Level)
	assert.Equal(t, 150, s.ExperienceToNextLevel)
	assert.Equal(t, []string{AchievementContactInitiator}, s.UnlockedAchievements)
}

func TestReduce_UnlockIsIdempotent(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, AchievementUnlock(AchievementMarathonReader, t0))
	again := Reduce(s, AchievementUnlock(AchievementMarathonReader, at(time.Hour)))

	assert.Equal(t, s.TotalPoints, again.TotalPoints)
	assert.Equal(t, s.ExperiencePoints, again.ExperiencePoints)
	assert.Equal(t, s.Level, again.Level)
	assert.Equal(t, s.UnlockedAchievements, again.UnlockedAchievements)
}

func TestReduce_UnknownAchievementIsNoop(t *testing.T) {
	s := NewGameState(t0)
	assert.Equal(t, s, Reduce(s, AchievementUnlock("moon_landing", t0)))
}

func TestReduce_ResetState(t *testing.T) {
	s, _ := applyAll(t, NewGameState(t0),
		SectionVisit("home", "Home", at(time.Second)),
		FormSubmit("contact", at(2*time.Second)),
	)
	require.NotZero(t, s.TotalPoints)

	reset := Reduce(s, ResetState(at(time.Hour)))
	assert.Equal(t, NewGameState(at(time.Hour)), reset)
}

func TestReduce_SessionEndFoldsSessionTime(t *testing.T) {
	s := NewGameState(t0)
	s = Reduce(s, SessionEnd(at(90*time.Second)))

	assert.Equal(t, 90.0, s.VisitorStats.TotalTimeSpent)
	assert.Equal(t, at(90*time.Second), s.VisitorStats.CurrentSessionStart)

	s = Reduce(s, SessionEnd(at(100*time.Second)))
	assert.Equal(t, 100.0, s.VisitorStats.TotalTimeSpent)
}

func TestReduce_SessionStartIsNoop(t *testing.T) {
	s := NewGameState(t0)
	assert.Equal(t, s, Reduce(s, SessionStart(at(time.Minute))))
}

// ═══════════════════════════════════════════════════════════════════════════
// Scenarios
// ═══════════════════════════════════════════════════════════════════════════

func TestScenario_FirstVisitToHome(t *testing.T) {
	s, unlocked := Apply(NewGameState(t0), SectionVisit("home", "Home", at(time.Second)))

	require.Len(t, s.SectionProgress, 1)
	assert.Equal(t, 1, s.SectionProgress[0].Visits)
	assert.Equal(t, 0, s.SectionProgress[0].Interactions)
	assert.Equal(t, []string{AchievementFirstVisitor}, ids(unlocked))
	assert.Equal(t, 10, s.TotalPoints)
	assert.True(t, s.IsUnlocked(AchievementFirstVisitor))
}

func TestScenario_AllMainSectionsUnlockExplorerOnly(t *testing.T) {
	s := NewGameState(t0)
	var events []Event
	for i, id := range MainSections {
		// Spread the tour over more than two minutes.
		events = append(events, SectionVisit(id, id, at(time.Duration(i+1)*time.Minute)))
	}
	s, unlocked := applyAll(t, s, events...)

	assert.Contains(t, ids(unlocked), AchievementSectionExplorer)
	assert.False(t, s.IsUnlocked(AchievementCompletionist))
	assert.False(t, s.IsUnlocked(AchievementSpeedReader))

	a, _ := s.Achievement(AchievementSectionExplorer)
	assert.True(t, a.IsUnlocked)
	assert.Equal(t, 50, a.Points)
}

func TestScenario_TwentyFiveInteractions(t *testing.T) {
	mix := []InteractionType{LinkClicks, MagneticInteractions, SkillHovers}
	s := NewGameState(t0)
	for i := 0; i < 24; i++ {
		s, _ = Apply(s, Interaction(mix[i%len(mix)], 1, t0))
	}
	assert.False(t, s.IsUnlocked(AchievementInteractionMaster))

	s, unlocked := Apply(s, Interaction(LinkClicks, 1, t0))
	assert.Contains(t, ids(unlocked), AchievementInteractionMaster)
}

func TestScenario_FormSubmitUnlocksContactInitiatorOnce(t *testing.T) {
	s, first := Apply(NewGameState(t0), FormSubmit("contact", t0))
	pointsAfterFirst := s.TotalPoints
	s, second := Apply(s, FormSubmit("contact", t0))

	assert.Equal(t, []string{AchievementContactInitiator}, ids(first))
	assert.Empty(t, second)
	assert.Equal(t, pointsAfterFirst, s.TotalPoints)
	assert.Equal(t, 100, pointsAfterFirst)

	count := 0
	for _, id := range s.UnlockedAchievements {
		if id == AchievementContactInitiator {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestApply_SpeedReader(t *testing.T) {
	s := NewGameState(t0)
	var events []Event
	for i, id := range MainSections {
		events = append(events, SectionVisit(id, id, at(time.Duration(i+1)*10*time.Second)))
	}
	s, unlocked := applyAll(t, s, events...)

	assert.Contains(t, ids(unlocked), AchievementSpeedReader)
	assert.True(t, s.IsUnlocked(AchievementSectionExplorer))
}

func TestApply_DeepDiverUsesRunningSession(t *testing.T) {
	s := NewGameState(t0)
	s, unlocked := Apply(s, Interaction(LinkClicks, 1, at(299*time.Second)))
	assert.NotContains(t, ids(unlocked), AchievementDeepDiver)

	s, unlocked = Apply(s, Interaction(LinkClicks, 1, at(300*time.Second)))
	assert.Contains(t, ids(unlocked), AchievementDeepDiver)
	assert.False(t, s.IsUnlocked(AchievementMarathonReader))
}

func TestApply_ExplicitUnlockReported(t *testing.T) {
	s, unlocked := Apply(NewGameState(t0), AchievementUnlock(AchievementVoiceCommander, t0))
	assert.Equal(t, []string{AchievementVoiceCommander}, ids(unlocked))
	assert.Equal(t, 40, s.TotalPoints)

	_, unlocked = Apply(s, AchievementUnlock(AchievementVoiceCommander, t0))
	assert.Empty(t, unlocked)
}

func TestApply_AchievementHunterAndCompletionist(t *testing.T) {
	s := NewGameState(t0)
	for _, id := range []string{
		AchievementFirstVisitor, AchievementSectionExplorer, AchievementDeepDiver,
		AchievementMarathonReader, AchievementFirstClick, AchievementInteractionMaster,
		AchievementSkillInvestigator, AchievementProjectEnthusiast, AchievementMagneticMaster,
		AchievementReturningVisitor, AchievementLoyalVisitor,
	} {
		s = Reduce(s, AchievementUnlock(id, t0))
	}
	require.False(t, s.IsUnlocked(AchievementHunter))

	// 12 of 16 is 75%.
	s, unlocked := Apply(s, AchievementUnlock(AchievementSpeedReader, t0))
	assert.Equal(t, []string{AchievementSpeedReader, AchievementHunter}, ids(unlocked))

	s = Reduce(s, AchievementUnlock(AchievementContactInitiator, t0))
	s = Reduce(s, AchievementUnlock(AchievementVoiceCommander, t0))
	for _, id := range MainSections {
		s = Reduce(s, SectionVisit(id, id, t0))
	}
	s, unlocked = Apply(s, Interaction(ButtonClicks, 49, t0))
	assert.False(t, s.IsUnlocked(AchievementCompletionist), "49 interactions is not complete")

	s, unlocked = Apply(s, Interaction(ButtonClicks, 1, t0))
	assert.Equal(t, []string{AchievementCompletionist}, ids(unlocked))
	assert.Equal(t, 100, ProgressOf(s).Overall)
	assert.Equal(t, CatalogSize(), len(s.UnlockedAchievements))
}
