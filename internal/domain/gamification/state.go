package gamification

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/Mangopixel04/portfliomango/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// DATE SET
// ═══════════════════════════════════════════════════════════════════════════

// DateSet is a set of YYYY-MM-DD calendar date keys.
// It marshals as a sorted JSON array.
type DateSet map[string]struct{}

// NewDateSet builds a set from keys.
func NewDateSet(keys ...string) DateSet {
	s := make(DateSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts key.
func (s DateSet) Add(key string) {
	s[key] = struct{}{}
}

// Has reports membership.
func (s DateSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the members in ascending order.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s DateSet) Clone() DateSet {
	out := make(DateSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (s DateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *DateSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewDateSet(keys...)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// VISITOR STATS
// ═══════════════════════════════════════════════════════════════════════════

// VisitorStats is the per-device visit aggregate.
type VisitorStats struct {
	TotalVisits         int       `json:"totalVisits"`
	FirstVisit          time.Time `json:"firstVisit"`
	LastVisit           time.Time `json:"lastVisit"`
	TotalTimeSpent      float64   `json:"totalTimeSpent"` // seconds
	ConsecutiveVisits   int       `json:"consecutiveVisits"`
	CurrentSessionStart time.Time `json:"currentSessionStart"`
	UniqueDaysVisited   DateSet   `json:"uniqueDaysVisited"`
	ReturningVisitor    bool      `json:"returningVisitor"`
}

// Clone returns a deep copy.
func (v VisitorStats) Clone() VisitorStats {
	out := v
	out.UniqueDaysVisited = v.UniqueDaysVisited.Clone()
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// SECTIONS
// ═══════════════════════════════════════════════════════════════════════════

// MainSections are the sections a complete tour covers.
var MainSections = []string{"hero", "about", "skills", "projects", "contact"}

// SectionCompletionVisits is the visit count at which a section is complete.
const SectionCompletionVisits = 3

// SpeedReaderWindow is how soon after session start all main sections
// must have been seen for the speed reader achievement.
const SpeedReaderWindow = 2 * time.Minute

// SectionProgress tracks one visited section.
type SectionProgress struct {
	SectionID    string    `json:"sectionId"`
	SectionName  string    `json:"sectionName"`
	Visits       int       `json:"visits"`
	TimeSpent    float64   `json:"timeSpent"` // seconds
	LastVisited  time.Time `json:"lastVisited"`
	Interactions int       `json:"interactions"`
	Completed    bool      `json:"completed"`
}

// ═══════════════════════════════════════════════════════════════════════════
// INTERACTIONS
// ═══════════════════════════════════════════════════════════════════════════

// InteractionType names one InteractionStats counter.
type InteractionType string

const (
	ButtonClicks         InteractionType = "buttonClicks"
	LinkClicks           InteractionType = "linkClicks"
	FormSubmissions      InteractionType = "formSubmissions"
	SkillHovers          InteractionType = "skillHovers"
	ProjectViews         InteractionType = "projectViews"
	ScrollDepth          InteractionType = "scrollDepth"
	MagneticInteractions InteractionType = "magneticInteractions"
	VoiceCommands        InteractionType = "voiceCommands"
)

// InteractionTypes lists every counter in a stable order.
var InteractionTypes = []InteractionType{
	ButtonClicks, LinkClicks, FormSubmissions, SkillHovers,
	ProjectViews, ScrollDepth, MagneticInteractions, VoiceCommands,
}

// IsValid reports whether t names a known counter.
func (t InteractionType) IsValid() bool {
	for _, known := range InteractionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// InteractionStats holds the named interaction counters.
// ScrollDepth is the deepest scroll percentage seen, not a count.
type InteractionStats struct {
	ButtonClicks         int `json:"buttonClicks"`
	LinkClicks           int `json:"linkClicks"`
	FormSubmissions      int `json:"formSubmissions"`
	SkillHovers          int `json:"skillHovers"`
	ProjectViews         int `json:"projectViews"`
	ScrollDepth          int `json:"scrollDepth"`
	MagneticInteractions int `json:"magneticInteractions"`
	VoiceCommands        int `json:"voiceCommands"`
}

func (s *InteractionStats) counter(t InteractionType) *int {
	switch t {
	case ButtonClicks:
		return &s.ButtonClicks
	case LinkClicks:
		return &s.LinkClicks
	case FormSubmissions:
		return &s.FormSubmissions
	case SkillHovers:
		return &s.SkillHovers
	case ProjectViews:
		return &s.ProjectViews
	case ScrollDepth:
		return &s.ScrollDepth
	case MagneticInteractions:
		return &s.MagneticInteractions
	case VoiceCommands:
		return &s.VoiceCommands
	default:
		return nil
	}
}

// Get returns the counter value for t.
func (s InteractionStats) Get(t InteractionType) (int, bool) {
	c := s.counter(t)
	if c == nil {
		return 0, false
	}
	return *c, true
}

// Total sums every counted interaction. ScrollDepth is a percentage and
// is not part of the sum.
func (s InteractionStats) Total() int {
	return s.ButtonClicks + s.LinkClicks + s.FormSubmissions + s.SkillHovers +
		s.ProjectViews + s.MagneticInteractions + s.VoiceCommands
}

// ═══════════════════════════════════════════════════════════════════════════
// GAME STATE
// ═══════════════════════════════════════════════════════════════════════════

// GameState is the aggregate root of one device's progress.
type GameState struct {
	VisitorStats          VisitorStats      `json:"visitorStats"`
	Achievements          []Achievement     `json:"achievements"`
	SectionProgress       []SectionProgress `json:"sectionProgress"`
	InteractionStats      InteractionStats  `json:"interactionStats"`
	TotalPoints           int               `json:"totalPoints"`
	Level                 int               `json:"level"`
	ExperiencePoints      int               `json:"experiencePoints"`
	ExperienceToNextLevel int               `json:"experienceToNextLevel"`
	UnlockedAchievements  []string          `json:"unlockedAchievements"`
	IsFirstTimeUser       bool              `json:"isFirstTimeUser"`
	SessionStartTime      time.Time         `json:"sessionStartTime"`
}

// NewGameState creates the state of a first-time visitor at now.
func NewGameState(now time.Time) GameState {
	now = now.UTC()
	level, toNext := LevelFor(0)
	return GameState{
		VisitorStats: VisitorStats{
			TotalVisits:         1,
			FirstVisit:          now,
			LastVisit:           now,
			ConsecutiveVisits:   1,
			CurrentSessionStart: now,
			UniqueDaysVisited:   NewDateSet(timeutil.DateKey(now)),
		},
		Achievements:          NewAchievements(),
		SectionProgress:       []SectionProgress{},
		Level:                 level,
		ExperienceToNextLevel: toNext,
		UnlockedAchievements:  []string{},
		IsFirstTimeUser:       true,
		SessionStartTime:      now,
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s GameState) Clone() GameState {
	out := s
	out.VisitorStats = s.VisitorStats.Clone()

	out.Achievements = make([]Achievement, len(s.Achievements))
	for i, a := range s.Achievements {
		out.Achievements[i] = a.clone()
	}

	out.SectionProgress = make([]SectionProgress, len(s.SectionProgress))
	copy(out.SectionProgress, s.SectionProgress)

	out.UnlockedAchievements = make([]string, len(s.UnlockedAchievements))
	copy(out.UnlockedAchievements, s.UnlockedAchievements)
	return out
}

// Section returns the progress entry for id.
func (s GameState) Section(id string) (SectionProgress, bool) {
	for _, sec := range s.SectionProgress {
		if sec.SectionID == id {
			return sec, true
		}
	}
	return SectionProgress{}, false
}

// Achievement returns the achievement with id.
func (s GameState) Achievement(id string) (Achievement, bool) {
	for _, a := range s.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// IsUnlocked reports whether id is in the unlocked list.
func (s GameState) IsUnlocked(id string) bool {
	for _, u := range s.UnlockedAchievements {
		if u == id {
			return true
		}
	}
	return false
}

// UnlockedCount counts achievements flagged as unlocked.
func (s GameState) UnlockedCount() int {
	n := 0
	for _, a := range s.Achievements {
		if a.IsUnlocked {
			n++
		}
	}
	return n
}

func (s *GameState) sectionIndex(id string) int {
	for i := range s.SectionProgress {
		if s.SectionProgress[i].SectionID == id {
			return i
		}
	}
	return -1
}
