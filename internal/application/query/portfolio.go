package query

import (
	"context"
	"fmt"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// FeatureGate answers global feature flag checks.
type FeatureGate interface {
	IsGloballyEnabled(name string) bool
}

// AnalyticsQueries lists events and computes the dashboard metrics.
type AnalyticsQueries struct {
	repo     portfolio.AnalyticsRepository
	presence portfolio.PresenceCounter
	flags    FeatureGate
	liveFlag string
	log      *logger.Logger
}

// NewAnalyticsQueries creates the queries. presence and flags may be nil.
func NewAnalyticsQueries(repo portfolio.AnalyticsRepository, presence portfolio.PresenceCounter, flags FeatureGate, liveFlag string, log *logger.Logger) *AnalyticsQueries {
	if log == nil {
		log = logger.Default()
	}
	return &AnalyticsQueries{
		repo:     repo,
		presence: presence,
		flags:    flags,
		liveFlag: liveFlag,
		log:      log.With(logger.Component("analytics_queries")),
	}
}

// Events returns at most limit events, newest first. A limit outside
// 1..DefaultEventsLimit uses DefaultEventsLimit.
func (q *AnalyticsQueries) Events(ctx context.Context, limit int) ([]*portfolio.AnalyticsEvent, error) {
	if limit <= 0 || limit > portfolio.DefaultEventsLimit {
		limit = portfolio.DefaultEventsLimit
	}
	return q.repo.ListEvents(ctx, limit)
}

// Metrics summarises every stored event. Live visitors come from the
// presence tracker; a presence failure reports zero instead of failing.
func (q *AnalyticsQueries) Metrics(ctx context.Context) (portfolio.Metrics, error) {
	events, err := q.repo.AllEvents(ctx)
	if err != nil {
		return portfolio.Metrics{}, fmt.Errorf("analytics_metrics: %w", err)
	}
	return portfolio.ComputeMetrics(events, q.liveVisitors(ctx)), nil
}

func (q *AnalyticsQueries) liveVisitors(ctx context.Context) int64 {
	if q.presence == nil {
		return 0
	}
	if q.flags != nil && !q.flags.IsGloballyEnabled(q.liveFlag) {
		return 0
	}
	n, err := q.presence.LiveCount(ctx)
	if err != nil {
		q.log.Warn("live visitor count failed", logger.Err(err))
		return 0
	}
	return n
}

// ══════════════════════════════════════════════════════════════════════════════
// SHOWCASE & INBOX QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// PortfolioQueries reads skills, projects and contact messages.
type PortfolioQueries struct {
	repos portfolio.Repositories
}

func NewPortfolioQueries(repos portfolio.Repositories) *PortfolioQueries {
	return &PortfolioQueries{repos: repos}
}

func (q *PortfolioQueries) Skills(ctx context.Context) ([]*portfolio.Skill, error) {
	return q.repos.Skills.ListVisibleSkills(ctx)
}

func (q *PortfolioQueries) Projects(ctx context.Context) ([]*portfolio.Project, error) {
	return q.repos.Projects.ListProjects(ctx)
}

func (q *PortfolioQueries) FeaturedProjects(ctx context.Context) ([]*portfolio.Project, error) {
	return q.repos.Projects.ListFeaturedProjects(ctx)
}

func (q *PortfolioQueries) Project(ctx context.Context, id string) (*portfolio.Project, error) {
	return q.repos.Projects.GetProject(ctx, id)
}

func (q *PortfolioQueries) ContactMessages(ctx context.Context) ([]*portfolio.ContactMessage, error) {
	return q.repos.Contacts.ListMessages(ctx)
}
