package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHOWCASE COMMANDS
// Admin edits of skills and projects.
// ══════════════════════════════════════════════════════════════════════════════

// SkillCommands creates, patches and deletes skills.
type SkillCommands struct {
	repo portfolio.SkillRepository
}

func NewSkillCommands(repo portfolio.SkillRepository) *SkillCommands {
	return &SkillCommands{repo: repo}
}

func (c *SkillCommands) Create(ctx context.Context, in portfolio.SkillInput) (*portfolio.Skill, error) {
	skill, err := portfolio.NewSkill(in)
	if err != nil {
		return nil, err
	}
	if err := c.repo.CreateSkill(ctx, skill); err != nil {
		return nil, fmt.Errorf("create_skill: %w", err)
	}
	return skill, nil
}

func (c *SkillCommands) Update(ctx context.Context, id string, patch portfolio.SkillPatch) (*portfolio.Skill, error) {
	return c.repo.UpdateSkill(ctx, id, patch)
}

func (c *SkillCommands) Delete(ctx context.Context, id string) error {
	return c.repo.DeleteSkill(ctx, id)
}

// ProjectCommands creates, patches and deletes projects.
type ProjectCommands struct {
	repo portfolio.ProjectRepository
	now  func() time.Time
}

func NewProjectCommands(repo portfolio.ProjectRepository) *ProjectCommands {
	return &ProjectCommands{repo: repo, now: time.Now}
}

func (c *ProjectCommands) Create(ctx context.Context, in portfolio.ProjectInput) (*portfolio.Project, error) {
	project, err := portfolio.NewProject(in, c.now())
	if err != nil {
		return nil, err
	}
	if err := c.repo.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create_project: %w", err)
	}
	return project, nil
}

func (c *ProjectCommands) Update(ctx context.Context, id string, patch portfolio.ProjectPatch) (*portfolio.Project, error) {
	return c.repo.UpdateProject(ctx, id, patch)
}

func (c *ProjectCommands) Delete(ctx context.Context, id string) error {
	return c.repo.DeleteProject(ctx, id)
}
