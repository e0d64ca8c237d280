// Package portfolio holds the public portfolio content and visitor
// feedback: contact messages, analytics events, skills and projects.
package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTACT MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// ContactStatus tracks how far a message got in the owner's inbox.
type ContactStatus string

const (
	ContactNew     ContactStatus = "new"
	ContactRead    ContactStatus = "read"
	ContactReplied ContactStatus = "replied"
)

// IsValid reports whether s is a known status.
func (s ContactStatus) IsValid() bool {
	switch s {
	case ContactNew, ContactRead, ContactReplied:
		return true
	default:
		return false
	}
}

// ParseContactStatus validates a raw status.
func ParseContactStatus(raw string) (ContactStatus, error) {
	s := ContactStatus(strings.TrimSpace(raw))
	if !s.IsValid() {
		return "", shared.ErrInvalidContactStatus
	}
	return s, nil
}

// ContactMessage is a message sent through the contact form.
type ContactMessage struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	ProjectType *string       `json:"projectType"`
	Budget      *string       `json:"budget"`
	Message     string        `json:"message"`
	Status      ContactStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ContactInput is the visitor-supplied part of a message.
type ContactInput struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	ProjectType *string `json:"projectType"`
	Budget      *string `json:"budget"`
	Message     string  `json:"message"`
}

// NewContactMessage validates in and creates a message with status new.
func NewContactMessage(in ContactInput, now time.Time) (*ContactMessage, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, shared.NewDomainError("contact", "Create", shared.ErrEmptyValue, "name is required")
	}
	email, err := shared.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.Message)
	if body == "" {
		return nil, shared.NewDomainError("contact", "Create", shared.ErrEmptyValue, "message is required")
	}

	return &ContactMessage{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email.String(),
		ProjectType: in.ProjectType,
		Budget:      in.Budget,
		Message:     body,
		Status:      ContactNew,
		CreatedAt:   now.UTC(),
	}, nil
}
