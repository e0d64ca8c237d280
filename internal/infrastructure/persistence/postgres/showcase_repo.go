package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILL REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SkillRepository implements portfolio.SkillRepository over skills_data.
type SkillRepository struct {
	conn *Connection
}

// NewSkillRepository creates a SkillRepository.
func NewSkillRepository(conn *Connection) *SkillRepository {
	return &SkillRepository{conn: conn}
}

const skillColumns = `id, name, category, proficiency, technologies, is_visible, sort_order`

func (r *SkillRepository) ListVisibleSkills(ctx context.Context) ([]*portfolio.Skill, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+skillColumns+` FROM skills_data WHERE is_visible ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	out := make([]*portfolio.Skill, 0)
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SkillRepository) CreateSkill(ctx context.Context, s *portfolio.Skill) error {
	return insertSkill(ctx, r.conn, s)
}

func insertSkill(ctx context.Context, q Querier, s *portfolio.Skill) error {
	_, err := q.Exec(ctx, `
		INSERT INTO skills_data (`+skillColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.Name, s.Category, s.Proficiency, s.Technologies, s.IsVisible, s.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to create skill: %w", err)
	}
	return nil
}

// UpdateSkill locks the row, applies patch and writes it back in one
// transaction.
func (r *SkillRepository) UpdateSkill(ctx context.Context, id string, patch portfolio.SkillPatch) (*portfolio.Skill, error) {
	var updated portfolio.Skill
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		cur, err := scanSkill(tx.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills_data WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		next, err := patch.Apply(*cur)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE skills_data SET
				name = $2, category = $3, proficiency = $4,
				technologies = $5, is_visible = $6, sort_order = $7
			WHERE id = $1
		`, id, next.Name, next.Category, next.Proficiency, next.Technologies, next.IsVisible, next.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to update skill: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *SkillRepository) DeleteSkill(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM skills_data WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrSkillNotFound
	}
	return nil
}

func scanSkill(row pgx.Row) (*portfolio.Skill, error) {
	var s portfolio.Skill
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Proficiency, &s.Technologies, &s.IsVisible, &s.SortOrder)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to scan skill: %w", err)
	}
	if s.Technologies == nil {
		s.Technologies = []string{}
	}
	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROJECT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProjectRepository implements portfolio.ProjectRepository.
type ProjectRepository struct {
	conn *Connection
}

// NewProjectRepository creates a ProjectRepository.
func NewProjectRepository(conn *Connection) *ProjectRepository {
	return &ProjectRepository{conn: conn}
}

const projectColumns = `id, title, description, image_url, technologies, live_url,
	github_url, case_study_url, is_featured, sort_order, created_at`

func (r *ProjectRepository) ListProjects(ctx context.Context) ([]*portfolio.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY sort_order, created_at`)
}

func (r *ProjectRepository) ListFeaturedProjects(ctx context.Context) ([]*portfolio.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects WHERE is_featured ORDER BY sort_order, created_at`)
}

func (r *ProjectRepository) list(ctx context.Context, query string) ([]*portfolio.Project, error) {
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := make([]*portfolio.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*portfolio.Project, error) {
	return scanProject(r.conn.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *ProjectRepository) CreateProject(ctx context.Context, p *portfolio.Project) error {
	return insertProject(ctx, r.conn, p)
}

func insertProject(ctx context.Context, q Querier, p *portfolio.Project) error {
	_, err := q.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.Title, p.Description, p.ImageURL, p.Technologies, p.LiveURL,
		p.GithubURL, p.CaseStudyURL, p.IsFeatured, p.SortOrder, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// UpdateProject locks the row, applies patch and writes it back in one
// transaction.
func (r *ProjectRepository) UpdateProject(ctx context.Context, id string, patch portfolio.ProjectPatch) (*portfolio.Project, error) {
	var updated portfolio.Project
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		cur, err := scanProject(tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		next, err := patch.Apply(*cur)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE projects SET
				title = $2, description = $3, image_url = $4, technologies = $5,
				live_url = $6, github_url = $7, case_study_url = $8,
				is_featured = $9, sort_order = $10
			WHERE id = $1
		`, id, next.Title, next.Description, next.ImageURL, next.Technologies,
			next.LiveURL, next.GithubURL, next.CaseStudyURL, next.IsFeatured, next.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ProjectRepository) DeleteProject(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProjectNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*portfolio.Project, error) {
	var p portfolio.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.Technologies, &p.LiveURL,
		&p.GithubURL, &p.CaseStudyURL, &p.IsFeatured, &p.SortOrder, &p.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SEEDING
// ══════════════════════════════════════════════════════════════════════════════

// SeedDefaults inserts the default skills and projects into whichever of the
// two tables is empty. It reports how many rows were inserted.
func SeedDefaults(ctx context.Context, conn *Connection, now time.Time) (int, error) {
	inserted := 0
	err := conn.WithTx(ctx, func(tx pgx.Tx) error {
		var skills, projects int
		if err := tx.QueryRow(ctx, `SELECT
			(SELECT COUNT(*) FROM skills_data),
			(SELECT COUNT(*) FROM projects)`).Scan(&skills, &projects); err != nil {
			return fmt.Errorf("failed to count showcase rows: %w", err)
		}

		if skills == 0 {
			for _, s := range portfolio.DefaultSkills() {
				if err := insertSkill(ctx, tx, s); err != nil {
					return err
				}
				inserted++
			}
		}
		if projects == 0 {
			for _, p := range portfolio.DefaultProjects(now) {
				if err := insertProject(ctx, tx, p); err != nil {
					return err
				}
				inserted++
			}
		}
		return nil
	})
	return inserted, err
}

// Repositories wires every postgres repository into the domain bundle.
func Repositories(conn *Connection) portfolio.Repositories {
	return portfolio.Repositories{
		Contacts:  NewContactRepository(conn),
		Analytics: NewAnalyticsRepository(conn),
		Skills:    NewSkillRepository(conn),
		Projects:  NewProjectRepository(conn),
	}
}
