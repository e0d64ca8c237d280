package gamification

import (
	"time"

	"github.com/Mangopixel04/portfliomango/pkg/timeutil"
)

// UpdateVisitorStatsForReturn computes the stats of a stored visitor who
// starts a new session at now. The streak grows by one only when
// yesterday's date is already recorded; otherwise it restarts at 1.
func UpdateVisitorStatsForReturn(existing VisitorStats, now time.Time) VisitorStats {
	now = now.UTC()
	next := existing.Clone()
	if next.UniqueDaysVisited == nil {
		next.UniqueDaysVisited = NewDateSet()
	}

	if next.UniqueDaysVisited.Has(timeutil.YesterdayKey(now)) {
		next.ConsecutiveVisits++
	} else {
		next.ConsecutiveVisits = 1
	}

	next.TotalVisits++
	next.LastVisit = now
	next.CurrentSessionStart = now
	next.UniqueDaysVisited.Add(timeutil.DateKey(now))
	next.ReturningVisitor = true
	return next
}

// ResumeSession turns a stored state into the state of a new session for
// a returning visitor.
func ResumeSession(stored GameState, now time.Time) GameState {
	next := stored.Clone()
	next.VisitorStats = UpdateVisitorStatsForReturn(stored.VisitorStats, now)
	next.IsFirstTimeUser = false
	next.SessionStartTime = now.UTC()
	return next
}
