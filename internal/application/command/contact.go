package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT CONTACT COMMAND
// Stores a contact form message and announces it on the bus.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitContactHandler handles contact form submissions.
type SubmitContactHandler struct {
	repo portfolio.ContactRepository
	bus  shared.EventPublisher
	now  func() time.Time
	log  *logger.Logger
}

// NewSubmitContactHandler creates the handler. bus may be nil.
func NewSubmitContactHandler(repo portfolio.ContactRepository, bus shared.EventPublisher, log *logger.Logger) *SubmitContactHandler {
	if log == nil {
		log = logger.Default()
	}
	return &SubmitContactHandler{
		repo: repo,
		bus:  bus,
		now:  time.Now,
		log:  log.With(logger.Component("submit_contact")),
	}
}

func (h *SubmitContactHandler) Handle(ctx context.Context, in portfolio.ContactInput) (*portfolio.ContactMessage, error) {
	msg, err := portfolio.NewContactMessage(in, h.now())
	if err != nil {
		return nil, err
	}
	if err := h.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("submit_contact: %w", err)
	}

	if h.bus != nil {
		projectType := ""
		if msg.ProjectType != nil {
			projectType = *msg.ProjectType
		}
		if err := h.bus.Publish(shared.NewContactReceivedEvent(msg.ID, msg.Name, msg.Email, projectType)); err != nil {
			h.log.Warn("failed to publish contact event", logger.String("message_id", msg.ID), logger.Err(err))
		}
	}
	return msg, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE CONTACT STATUS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

type UpdateContactStatusCommand struct {
	MessageID string
	Status    string
}

// UpdateContactStatusHandler moves a message through new, read and replied.
type UpdateContactStatusHandler struct {
	repo portfolio.ContactRepository
}

func NewUpdateContactStatusHandler(repo portfolio.ContactRepository) *UpdateContactStatusHandler {
	return &UpdateContactStatusHandler{repo: repo}
}

func (h *UpdateContactStatusHandler) Handle(ctx context.Context, cmd UpdateContactStatusCommand) (*portfolio.ContactMessage, error) {
	status, err := portfolio.ParseContactStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.repo.UpdateMessageStatus(ctx, cmd.MessageID, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACK ANALYTICS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// FeatureGate answers global feature flag checks.
type FeatureGate interface {
	IsGloballyEnabled(name string) bool
}

// TrackAnalyticsHandler stores analytics events.
type TrackAnalyticsHandler struct {
	repo  portfolio.AnalyticsRepository
	flags FeatureGate
	flag  string
	now   func() time.Time
}

// NewTrackAnalyticsHandler creates the handler. When flags is set and flag
// is off, events are accepted but not stored.
func NewTrackAnalyticsHandler(repo portfolio.AnalyticsRepository, flags FeatureGate, flag string) *TrackAnalyticsHandler {
	return &TrackAnalyticsHandler{repo: repo, flags: flags, flag: flag, now: time.Now}
}

// Handle returns the event and whether it was stored.
func (h *TrackAnalyticsHandler) Handle(ctx context.Context, in portfolio.AnalyticsInput) (*portfolio.AnalyticsEvent, bool, error) {
	event, err := portfolio.NewAnalyticsEvent(in, h.now())
	if err != nil {
		return nil, false, err
	}
	if h.flags != nil && !h.flags.IsGloballyEnabled(h.flag) {
		return event, false, nil
	}
	if err := h.repo.CreateEvent(ctx, event); err != nil {
		return nil, false, fmt.Errorf("track_analytics: %w", err)
	}
	return event, true, nil
}
