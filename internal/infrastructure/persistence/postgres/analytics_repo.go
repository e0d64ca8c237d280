package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
)

// AnalyticsRepository implements portfolio.AnalyticsRepository.
type AnalyticsRepository struct {
	conn *Connection
}

// NewAnalyticsRepository creates an AnalyticsRepository.
func NewAnalyticsRepository(conn *Connection) *AnalyticsRepository {
	return &AnalyticsRepository{conn: conn}
}

const analyticsColumns = `id, event_type, event_data, user_agent, ip_address, session_id, timestamp`

func (r *AnalyticsRepository) CreateEvent(ctx context.Context, e *portfolio.AnalyticsEvent) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO analytics_events (`+analyticsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.EventType, e.EventData, e.UserAgent, e.IPAddress, e.SessionID, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create analytics event: %w", err)
	}
	return nil
}

func (r *AnalyticsRepository) ListEvents(ctx context.Context, limit int) ([]*portfolio.AnalyticsEvent, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+analyticsColumns+` FROM analytics_events ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics events: %w", err)
	}
	return collectEvents(rows)
}

// AllEvents is unbounded; metrics are computed over the full history.
func (r *AnalyticsRepository) AllEvents(ctx context.Context) ([]*portfolio.AnalyticsEvent, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+analyticsColumns+` FROM analytics_events`)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics events: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*portfolio.AnalyticsEvent, error) {
	defer rows.Close()

	out := make([]*portfolio.AnalyticsEvent, 0)
	for rows.Next() {
		var e portfolio.AnalyticsEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.EventData, &e.UserAgent, &e.IPAddress, &e.SessionID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan analytics event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}
