package gamification

import (
	"fmt"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// EventType names a reducer input.
type EventType string

const (
	EventSectionVisit      EventType = "SECTION_VISIT"
	EventInteraction       EventType = "INTERACTION"
	EventTimeSpent         EventType = "TIME_SPENT"
	EventProjectView       EventType = "PROJECT_VIEW"
	EventFormSubmit        EventType = "FORM_SUBMIT"
	EventAchievementUnlock EventType = "ACHIEVEMENT_UNLOCK"
	EventResetState        EventType = "RESET_STATE"
	EventSessionStart      EventType = "SESSION_START"
	EventSessionEnd        EventType = "SESSION_END"
)

// Event is a semantic visitor action. Only the fields relevant to Type are
// read. OccurredAt stamps every timestamp the reducer writes.
type Event struct {
	Type            EventType       `json:"type"`
	SectionID       string          `json:"sectionId,omitempty"`
	SectionName     string          `json:"sectionName,omitempty"`
	InteractionType InteractionType `json:"interactionType,omitempty"`
	Count           int             `json:"count,omitempty"`
	TimeSpent       float64         `json:"timeSpent,omitempty"`
	ProjectID       string          `json:"projectId,omitempty"`
	FormType        string          `json:"formType,omitempty"`
	AchievementID   string          `json:"achievementId,omitempty"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

func SectionVisit(sectionID, sectionName string, at time.Time) Event {
	return Event{Type: EventSectionVisit, SectionID: sectionID, SectionName: sectionName, OccurredAt: at}
}

func Interaction(t InteractionType, count int, at time.Time) Event {
	return Event{Type: EventInteraction, InteractionType: t, Count: count, OccurredAt: at}
}

// SectionInteraction is an Interaction that also counts toward a section.
func SectionInteraction(t InteractionType, sectionID string, at time.Time) Event {
	return Event{Type: EventInteraction, InteractionType: t, Count: 1, SectionID: sectionID, OccurredAt: at}
}

func TimeSpent(sectionID string, seconds float64, at time.Time) Event {
	return Event{Type: EventTimeSpent, SectionID: sectionID, TimeSpent: seconds, OccurredAt: at}
}

func ProjectView(projectID string, at time.Time) Event {
	return Event{Type: EventProjectView, ProjectID: projectID, OccurredAt: at}
}

func FormSubmit(formType string, at time.Time) Event {
	return Event{Type: EventFormSubmit, FormType: formType, OccurredAt: at}
}

func AchievementUnlock(achievementID string, at time.Time) Event {
	return Event{Type: EventAchievementUnlock, AchievementID: achievementID, OccurredAt: at}
}

func ResetState(at time.Time) Event {
	return Event{Type: EventResetState, OccurredAt: at}
}

func SessionStart(at time.Time) Event {
	return Event{Type: EventSessionStart, OccurredAt: at}
}

func SessionEnd(at time.Time) Event {
	return Event{Type: EventSessionEnd, OccurredAt: at}
}

// Validate checks that the event carries the fields its type needs. The
// reducer tolerates malformed events; Validate exists for transport layers
// that want to reject them before they reach it.
func (e Event) Validate() error {
	const op = "ValidateEvent"
	switch e.Type {
	case EventSectionVisit, EventTimeSpent:
		if e.SectionID == "" {
			return shared.NewDomainError("gamification", op, shared.ErrEmptyValue, "sectionId is required")
		}
		if e.TimeSpent < 0 {
			return shared.NewDomainError("gamification", op, shared.ErrNegativeValue, "timeSpent cannot be negative")
		}
	case EventInteraction:
		if !e.InteractionType.IsValid() {
			return shared.NewDomainError("gamification", op, shared.ErrInvalidInput,
				fmt.Sprintf("unknown interaction type %q", e.InteractionType))
		}
		if e.Count < 0 {
			return shared.NewDomainError("gamification", op, shared.ErrNegativeValue, "count cannot be negative")
		}
	case EventAchievementUnlock:
		if e.AchievementID == "" {
			return shared.NewDomainError("gamification", op, shared.ErrEmptyValue, "achievementId is required")
		}
	case EventProjectView, EventFormSubmit, EventResetState, EventSessionStart, EventSessionEnd:
	default:
		return shared.ErrUnknownEventType
	}
	return nil
}
