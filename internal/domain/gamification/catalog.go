// Package gamification contains the visitor progress engine: the achievement
// catalog, the pure event reducer, the achievement evaluator, leveling, and
// the derived progress projection.
//
// Nothing in this package performs I/O or reads the wall clock. Every
// transition receives the instant it happened at, so the same inputs always
// produce the same GameState.
package gamification

import "time"

// Category groups achievements for display.
type Category string

const (
	CategoryExploration Category = "exploration"
	CategoryInteraction Category = "interaction"
	CategoryEngagement  Category = "engagement"
	CategorySocial      Category = "social"
	CategoryCompletion  Category = "completion"
)

// Title returns the badge name shown for the category.
func (c Category) Title() string {
	switch c {
	case CategoryExploration:
		return "Explorer"
	case CategoryInteraction:
		return "Interaction Master"
	case CategoryEngagement:
		return "Engagement Expert"
	case CategorySocial:
		return "Social Connector"
	case CategoryCompletion:
		return "Completionist"
	default:
		return string(c)
	}
}

// RequirementKind names the counter family a requirement observes.
type RequirementKind string

const (
	RequirementSectionVisit      RequirementKind = "section_visit"
	RequirementTimeSpent         RequirementKind = "time_spent"
	RequirementInteractionCount  RequirementKind = "interaction_count"
	RequirementConsecutiveVisits RequirementKind = "consecutive_visits"
	RequirementProjectView       RequirementKind = "project_view"
	RequirementContactForm       RequirementKind = "contact_form"
	RequirementSkillHover        RequirementKind = "skill_hover"
)

// Requirement targets. TargetTotal on a requirement and TargetAll on an
// observation are wildcards: they match any observation of the same kind.
const (
	TargetTotal                = "total"
	TargetAll                  = "all"
	TargetAllSections          = "all_sections"
	TargetAllSectionsComplete  = "all_sections_complete"
	TargetAllSectionsFast      = "all_sections_fast"
	TargetTotalInteractions    = "total_interactions"
	TargetAchievementsUnlocked = "achievements_unlocked"
	TargetSkills               = "skills"
	TargetAllProjects          = "all_projects"
	TargetContact              = "contact"
)

// Achievement ids.
const (
	AchievementFirstVisitor      = "first_visitor"
	AchievementSectionExplorer   = "section_explorer"
	AchievementDeepDiver         = "deep_diver"
	AchievementMarathonReader    = "marathon_reader"
	AchievementFirstClick        = "first_click"
	AchievementInteractionMaster = "interaction_master"
	AchievementSkillInvestigator = "skill_investigator"
	AchievementProjectEnthusiast = "project_enthusiast"
	AchievementMagneticMaster    = "magnetic_master"
	AchievementReturningVisitor  = "returning_visitor"
	AchievementLoyalVisitor      = "loyal_visitor"
	AchievementSpeedReader       = "speed_reader"
	AchievementContactInitiator  = "contact_initiator"
	AchievementVoiceCommander    = "voice_commander"
	AchievementCompletionist     = "completionist"
	AchievementHunter            = "achievement_hunter"
)

// Requirement is one measurable unlock condition.
type Requirement struct {
	Kind         RequirementKind `json:"type"`
	Target       string          `json:"target"`
	Threshold    float64         `json:"threshold"`
	CurrentValue float64         `json:"currentValue"`
}

// Met reports whether the requirement has reached its threshold.
func (r Requirement) Met() bool {
	return r.CurrentValue >= r.Threshold
}

// Achievement is a point-valued milestone that unlocks exactly once.
type Achievement struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Icon         string        `json:"icon"`
	Category     Category      `json:"category"`
	Points       int           `json:"points"`
	IsUnlocked   bool          `json:"isUnlocked"`
	UnlockedAt   *time.Time    `json:"unlockedAt,omitempty"`
	Requirements []Requirement `json:"requirements"`
}

// clone returns a deep copy.
func (a Achievement) clone() Achievement {
	out := a
	out.Requirements = make([]Requirement, len(a.Requirements))
	copy(out.Requirements, a.Requirements)
	if a.UnlockedAt != nil {
		at := *a.UnlockedAt
		out.UnlockedAt = &at
	}
	return out
}

func req(kind RequirementKind, target string, threshold float64) Requirement {
	return Requirement{Kind: kind, Target: target, Threshold: threshold}
}

// catalog is the static definition list. Never hand it out directly;
// NewAchievements copies it.
var catalog = []Achievement{
	// Exploration
	{
		ID: AchievementFirstVisitor, Title: "Welcome Explorer", Icon: "🎯",
		Description: "Visited the portfolio for the first time",
		Category:    CategoryExploration, Points: 10,
		Requirements: []Requirement{req(RequirementSectionVisit, "home", 1)},
	},
	{
		ID: AchievementSectionExplorer, Title: "Section Explorer", Icon: "🗺️",
		Description: "Visited all main sections of the portfolio",
		Category:    CategoryExploration, Points: 50,
		Requirements: []Requirement{
			req(RequirementSectionVisit, "hero", 1),
			req(RequirementSectionVisit, "about", 1),
			req(RequirementSectionVisit, "skills", 1),
			req(RequirementSectionVisit, "projects", 1),
			req(RequirementSectionVisit, "contact", 1),
		},
	},
	{
		ID: AchievementDeepDiver, Title: "Deep Diver", Icon: "🏊‍♂️",
		Description: "Spent over 5 minutes exploring the portfolio",
		Category:    CategoryExploration, Points: 30,
		Requirements: []Requirement{req(RequirementTimeSpent, TargetTotal, 300)},
	},
	{
		ID: AchievementMarathonReader, Title: "Marathon Reader", Icon: "📚",
		Description: "Spent over 15 minutes exploring the portfolio",
		Category:    CategoryExploration, Points: 75,
		Requirements: []Requirement{req(RequirementTimeSpent, TargetTotal, 900)},
	},

	// Interaction
	{
		ID: AchievementFirstClick, Title: "First Click", Icon: "👆",
		Description: "Clicked your first interactive element",
		Category:    CategoryInteraction, Points: 5,
		Requirements: []Requirement{req(RequirementInteractionCount, string(ButtonClicks), 1)},
	},
	{
		ID: AchievementInteractionMaster, Title: "Interaction Master", Icon: "🎮",
		Description: "Performed 25 interactions with the portfolio",
		Category:    CategoryInteraction, Points: 60,
		Requirements: []Requirement{req(RequirementInteractionCount, TargetTotalInteractions, 25)},
	},
	{
		ID: AchievementSkillInvestigator, Title: "Skill Investigator", Icon: "🔍",
		Description: "Hovered over 10 different skills",
		Category:    CategoryInteraction, Points: 25,
		Requirements: []Requirement{req(RequirementSkillHover, TargetSkills, 10)},
	},
	{
		ID: AchievementProjectEnthusiast, Title: "Project Enthusiast", Icon: "🚀",
		Description: "Viewed all featured projects",
		Category:    CategoryInteraction, Points: 40,
		Requirements: []Requirement{req(RequirementProjectView, TargetAllProjects, 4)},
	},
	{
		ID: AchievementMagneticMaster, Title: "Magnetic Master", Icon: "🧲",
		Description: "Interacted with 15 magnetic elements",
		Category:    CategoryInteraction, Points: 35,
		Requirements: []Requirement{req(RequirementInteractionCount, string(MagneticInteractions), 15)},
	},

	// Engagement
	{
		ID: AchievementReturningVisitor, Title: "Returning Visitor", Icon: "🔄",
		Description: "Came back to visit the portfolio again",
		Category:    CategoryEngagement, Points: 20,
		Requirements: []Requirement{req(RequirementConsecutiveVisits, TargetTotal, 2)},
	},
	{
		ID: AchievementLoyalVisitor, Title: "Loyal Visitor", Icon: "❤️",
		Description: "Visited the portfolio 5 times",
		Category:    CategoryEngagement, Points: 50,
		Requirements: []Requirement{req(RequirementConsecutiveVisits, TargetTotal, 5)},
	},
	{
		ID: AchievementSpeedReader, Title: "Speed Reader", Icon: "⚡",
		Description: "Visited all sections in under 2 minutes",
		Category:    CategoryEngagement, Points: 45,
		Requirements: []Requirement{req(RequirementTimeSpent, TargetAllSectionsFast, SpeedReaderWindow.Seconds())},
	},

	// Social
	{
		ID: AchievementContactInitiator, Title: "Contact Initiator", Icon: "📧",
		Description: "Submitted the contact form",
		Category:    CategorySocial, Points: 100,
		Requirements: []Requirement{req(RequirementContactForm, TargetContact, 1)},
	},
	{
		ID: AchievementVoiceCommander, Title: "Voice Commander", Icon: "🎤",
		Description: "Used voice navigation features",
		Category:    CategorySocial, Points: 40,
		Requirements: []Requirement{req(RequirementInteractionCount, string(VoiceCommands), 3)},
	},

	// Completion
	{
		ID: AchievementCompletionist, Title: "Completionist", Icon: "🏆",
		Description: "Achieved 100% completion of the portfolio experience",
		Category:    CategoryCompletion, Points: 200,
		Requirements: []Requirement{req(RequirementSectionVisit, TargetAllSectionsComplete, 100)},
	},
	{
		ID: AchievementHunter, Title: "Achievement Hunter", Icon: "🏅",
		Description: "Unlocked 75% of all achievements",
		Category:    CategoryCompletion, Points: 150,
		Requirements: []Requirement{req(RequirementInteractionCount, TargetAchievementsUnlocked, 75)},
	},
}

// NewAchievements returns a fresh, fully locked copy of the catalog.
func NewAchievements() []Achievement {
	out := make([]Achievement, len(catalog))
	for i, a := range catalog {
		out[i] = a.clone()
		out[i].IsUnlocked = false
		out[i].UnlockedAt = nil
	}
	return out
}

// CatalogSize is the number of defined achievements.
func CatalogSize() int {
	return len(catalog)
}

// LookupAchievement returns the catalog definition for id.
func LookupAchievement(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a.clone(), true
		}
	}
	return Achievement{}, false
}
