package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTACT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ContactRepository implements portfolio.ContactRepository.
type ContactRepository struct {
	conn *Connection
}

// NewContactRepository creates a ContactRepository.
func NewContactRepository(conn *Connection) *ContactRepository {
	return &ContactRepository{conn: conn}
}

const contactColumns = `id, name, email, project_type, budget, message, status, created_at`

func (r *ContactRepository) CreateMessage(ctx context.Context, m *portfolio.ContactMessage) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO contact_messages (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.Name, m.Email, m.ProjectType, m.Budget, m.Message, string(m.Status), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

func (r *ContactRepository) ListMessages(ctx context.Context) ([]*portfolio.ContactMessage, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+contactColumns+` FROM contact_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	out := make([]*portfolio.ContactMessage, 0)
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ContactRepository) GetMessage(ctx context.Context, id string) (*portfolio.ContactMessage, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+contactColumns+` FROM contact_messages WHERE id = $1`, id)
	return scanContact(row)
}

func (r *ContactRepository) UpdateMessageStatus(ctx context.Context, id string, status portfolio.ContactStatus) (*portfolio.ContactMessage, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE contact_messages SET status = $2 WHERE id = $1
		RETURNING `+contactColumns, id, string(status))
	return scanContact(row)
}

func scanContact(row pgx.Row) (*portfolio.ContactMessage, error) {
	var (
		m      portfolio.ContactMessage
		status string
	)
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.ProjectType, &m.Budget, &m.Message, &status, &m.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrContactMessageNotFound
		}
		return nil, fmt.Errorf("failed to scan contact message: %w", err)
	}
	m.Status = portfolio.ContactStatus(status)
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}
