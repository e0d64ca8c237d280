package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILLS
// ══════════════════════════════════════════════════════════════════════════════

// Skill is one entry of the skills section.
type Skill struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Proficiency  int      `json:"proficiency"`
	Technologies []string `json:"technologies"`
	IsVisible    bool     `json:"isVisible"`
	SortOrder    int      `json:"sortOrder"`
}

// SkillInput creates a skill. IsVisible defaults to true.
type SkillInput struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Proficiency  int      `json:"proficiency"`
	Technologies []string `json:"technologies"`
	IsVisible    *bool    `json:"isVisible"`
	SortOrder    int      `json:"sortOrder"`
}

// NewSkill validates in.
func NewSkill(in SkillInput) (*Skill, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" {
		return nil, shared.NewDomainError("skill", "Create", shared.ErrEmptyValue, "name and category are required")
	}
	p, err := shared.NewProficiency(in.Proficiency)
	if err != nil {
		return nil, err
	}
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}
	return &Skill{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     category,
		Proficiency:  p.Int(),
		Technologies: nonNil(in.Technologies),
		IsVisible:    visible,
		SortOrder:    in.SortOrder,
	}, nil
}

// SkillPatch is a partial update; nil fields are left alone.
type SkillPatch struct {
	Name         *string   `json:"name"`
	Category     *string   `json:"category"`
	Proficiency  *int      `json:"proficiency"`
	Technologies *[]string `json:"technologies"`
	IsVisible    *bool     `json:"isVisible"`
	SortOrder    *int      `json:"sortOrder"`
}

// Apply returns s with the patch applied.
func (p SkillPatch) Apply(s Skill) (Skill, error) {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		s.Category = strings.TrimSpace(*p.Category)
	}
	if s.Name == "" || s.Category == "" {
		return Skill{}, shared.NewDomainError("skill", "Update", shared.ErrEmptyValue, "name and category are required")
	}
	if p.Proficiency != nil {
		v, err := shared.NewProficiency(*p.Proficiency)
		if err != nil {
			return Skill{}, err
		}
		s.Proficiency = v.Int()
	}
	if p.Technologies != nil {
		s.Technologies = nonNil(*p.Technologies)
	}
	if p.IsVisible != nil {
		s.IsVisible = *p.IsVisible
	}
	if p.SortOrder != nil {
		s.SortOrder = *p.SortOrder
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Project is one showcased project.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURL     *string   `json:"imageUrl"`
	Technologies []string  `json:"technologies"`
	LiveURL      *string   `json:"liveUrl"`
	GithubURL    *string   `json:"githubUrl"`
	CaseStudyURL *string   `json:"caseStudyUrl"`
	IsFeatured   bool      `json:"isFeatured"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProjectInput creates a project.
type ProjectInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURL     *string  `json:"imageUrl"`
	Technologies []string `json:"technologies"`
	LiveURL      *string  `json:"liveUrl"`
	GithubURL    *string  `json:"githubUrl"`
	CaseStudyURL *string  `json:"caseStudyUrl"`
	IsFeatured   bool     `json:"isFeatured"`
	SortOrder    int      `json:"sortOrder"`
}

// NewProject validates in.
func NewProject(in ProjectInput, now time.Time) (*Project, error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" || desc == "" {
		return nil, shared.NewDomainError("project", "Create", shared.ErrEmptyValue, "title and description are required")
	}
	return &Project{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  desc,
		ImageURL:     in.ImageURL,
		Technologies: nonNil(in.Technologies),
		LiveURL:      in.LiveURL,
		GithubURL:    in.GithubURL,
		CaseStudyURL: in.CaseStudyURL,
		IsFeatured:   in.IsFeatured,
		SortOrder:    in.SortOrder,
		CreatedAt:    now.UTC(),
	}, nil
}

// ProjectPatch is a partial update; nil fields are left alone.
type ProjectPatch struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	ImageURL     *string   `json:"imageUrl"`
	Technologies *[]string `json:"technologies"`
	LiveURL      *string   `json:"liveUrl"`
	GithubURL    *string   `json:"githubUrl"`
	CaseStudyURL *string   `json:"caseStudyUrl"`
	IsFeatured   *bool     `json:"isFeatured"`
	SortOrder    *int      `json:"sortOrder"`
}

// Apply returns p with the patch applied.
func (u ProjectPatch) Apply(p Project) (Project, error) {
	if u.Title != nil {
		p.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
	if p.Title == "" || p.Description == "" {
		return Project{}, shared.NewDomainError("project", "Update", shared.ErrEmptyValue, "title and description are required")
	}
	if u.ImageURL != nil {
		p.ImageURL = u.ImageURL
	}
	if u.Technologies != nil {
		p.Technologies = nonNil(*u.Technologies)
	}
	if u.LiveURL != nil {
		p.LiveURL = u.LiveURL
	}
	if u.GithubURL != nil {
		p.GithubURL = u.GithubURL
	}
	if u.CaseStudyURL != nil {
		p.CaseStudyURL = u.CaseStudyURL
	}
	if u.IsFeatured != nil {
		p.IsFeatured = *u.IsFeatured
	}
	if u.SortOrder != nil {
		p.SortOrder = *u.SortOrder
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
