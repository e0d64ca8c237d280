package portfolio

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence (memory and postgres).
// ══════════════════════════════════════════════════════════════════════════════

// ContactRepository stores contact messages.
type ContactRepository interface {
	CreateMessage(ctx context.Context, m *ContactMessage) error

	// ListMessages returns every message, newest first.
	ListMessages(ctx context.Context) ([]*ContactMessage, error)

	// GetMessage returns shared.ErrContactMessageNotFound when missing.
	GetMessage(ctx context.Context, id string) (*ContactMessage, error)

	// UpdateMessageStatus returns the updated message or
	// shared.ErrContactMessageNotFound.
	UpdateMessageStatus(ctx context.Context, id string, status ContactStatus) (*ContactMessage, error)
}

// AnalyticsRepository stores analytics events.
type AnalyticsRepository interface {
	CreateEvent(ctx context.Context, e *AnalyticsEvent) error

	// ListEvents returns at most limit events, newest first.
	ListEvents(ctx context.Context, limit int) ([]*AnalyticsEvent, error)

	// AllEvents returns every event for metric computation.
	AllEvents(ctx context.Context) ([]*AnalyticsEvent, error)
}

// SkillRepository stores skills.
type SkillRepository interface {
	// ListVisibleSkills returns visible skills by sort order.
	ListVisibleSkills(ctx context.Context) ([]*Skill, error)
	CreateSkill(ctx context.Context, s *Skill) error

	// UpdateSkill applies patch atomically. Returns shared.ErrSkillNotFound
	// when missing.
	UpdateSkill(ctx context.Context, id string, patch SkillPatch) (*Skill, error)
	DeleteSkill(ctx context.Context, id string) error
}

// ProjectRepository stores projects.
type ProjectRepository interface {
	// ListProjects returns projects by sort order.
	ListProjects(ctx context.Context) ([]*Project, error)
	ListFeaturedProjects(ctx context.Context) ([]*Project, error)

	// GetProject returns shared.ErrProjectNotFound when missing.
	GetProject(ctx context.Context, id string) (*Project, error)
	CreateProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, id string, patch ProjectPatch) (*Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// Repositories groups the portfolio stores for injection.
type Repositories struct {
	Contacts  ContactRepository
	Analytics AnalyticsRepository
	Skills    SkillRepository
	Projects  ProjectRepository
}

// PresenceCounter counts visitors active right now.
type PresenceCounter interface {
	Touch(ctx context.Context, sessionID string) error
	LiveCount(ctx context.Context) (int64, error)
}
