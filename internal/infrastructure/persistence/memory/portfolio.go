package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// Storage keeps the portfolio content in maps. One instance is created at
// start-up and handed to every handler that needs it.
type Storage struct {
	mu       sync.RWMutex
	messages map[string]*portfolio.ContactMessage
	events   map[string]*portfolio.AnalyticsEvent
	skills   map[string]*portfolio.Skill
	projects map[string]*portfolio.Project
}

// NewStorage creates an empty store.
func NewStorage() *Storage {
	return &Storage{
		messages: make(map[string]*portfolio.ContactMessage),
		events:   make(map[string]*portfolio.AnalyticsEvent),
		skills:   make(map[string]*portfolio.Skill),
		projects: make(map[string]*portfolio.Project),
	}
}

// NewSeededStorage creates a store holding the default skills and projects.
func NewSeededStorage(now time.Time) *Storage {
	s := NewStorage()
	for _, sk := range portfolio.DefaultSkills() {
		s.skills[sk.ID] = sk
	}
	for _, p := range portfolio.DefaultProjects(now) {
		s.projects[p.ID] = p
	}
	return s
}

// Repositories exposes the store through the domain interfaces.
func (s *Storage) Repositories() portfolio.Repositories {
	return portfolio.Repositories{Contacts: s, Analytics: s, Skills: s, Projects: s}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTACT
// ══════════════════════════════════════════════════════════════════════════════

func (s *Storage) CreateMessage(_ context.Context, m *portfolio.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *Storage) ListMessages(_ context.Context) ([]*portfolio.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*portfolio.ContactMessage, 0, len(s.messages))
	for _, m := range s.messages {
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Storage) GetMessage(_ context.Context, id string) (*portfolio.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, shared.ErrContactMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Storage) UpdateMessageStatus(_ context.Context, id string, status portfolio.ContactStatus) (*portfolio.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, shared.ErrContactMessageNotFound
	}
	m.Status = status
	cp := *m
	return &cp, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Storage) CreateEvent(_ context.Context, e *portfolio.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *Storage) ListEvents(ctx context.Context, limit int) ([]*portfolio.AnalyticsEvent, error) {
	all, _ := s.AllEvents(ctx)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Storage) AllEvents(_ context.Context) ([]*portfolio.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*portfolio.AnalyticsEvent, 0, len(s.events))
	for _, e := range s.events {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILLS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Storage) ListVisibleSkills(_ context.Context) ([]*portfolio.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*portfolio.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		if sk.IsVisible {
			cp := *sk
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *Storage) CreateSkill(_ context.Context, sk *portfolio.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sk
	s.skills[sk.ID] = &cp
	return nil
}

func (s *Storage) UpdateSkill(_ context.Context, id string, patch portfolio.SkillPatch) (*portfolio.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.skills[id]
	if !ok {
		return nil, shared.ErrSkillNotFound
	}
	next, err := patch.Apply(*cur)
	if err != nil {
		return nil, err
	}
	s.skills[id] = &next
	cp := next
	return &cp, nil
}

func (s *Storage) DeleteSkill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[id]; !ok {
		return shared.ErrSkillNotFound
	}
	delete(s.skills, id)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROJECTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Storage) ListProjects(_ context.Context) ([]*portfolio.Project, error) {
	return s.projectsWhere(func(*portfolio.Project) bool { return true }), nil
}

func (s *Storage) ListFeaturedProjects(_ context.Context) ([]*portfolio.Project, error) {
	return s.projectsWhere(func(p *portfolio.Project) bool { return p.IsFeatured }), nil
}

func (s *Storage) projectsWhere(keep func(*portfolio.Project) bool) []*portfolio.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*portfolio.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func (s *Storage) GetProject(_ context.Context, id string) (*portfolio.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, shared.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Storage) CreateProject(_ context.Context, p *portfolio.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *Storage) UpdateProject(_ context.Context, id string, patch portfolio.ProjectPatch) (*portfolio.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.projects[id]
	if !ok {
		return nil, shared.ErrProjectNotFound
	}
	next, err := patch.Apply(*cur)
	if err != nil {
		return nil, err
	}
	s.projects[id] = &next
	cp := next
	return &cp, nil
}

func (s *Storage) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return shared.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}
