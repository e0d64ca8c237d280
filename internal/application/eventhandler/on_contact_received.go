package eventhandler

import (
	"log/slog"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// OnContactReceivedHandler records new contact messages in the log so the
// site owner sees them without polling the admin endpoint.
type OnContactReceivedHandler struct {
	logger *slog.Logger
}

func NewOnContactReceivedHandler(logger *slog.Logger) *OnContactReceivedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnContactReceivedHandler{logger: logger.With("handler", "on_contact_received")}
}

// Handle implements shared.EventHandler.
func (h *OnContactReceivedHandler) Handle(event shared.Event) error {
	p := event.Payload()
	h.logger.Info("contact message received",
		"message_id", event.AggregateID(),
		"name", p["name"],
		"email", p["email"],
		"project_type", p["project_type"],
	)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ═══════════════════════════════════════════════════════════════════════════

// Registrar is satisfied by messaging.Dispatcher.
type Registrar interface {
	Register(eventType shared.EventType, name string, handler shared.EventHandler) error
}

// RegisterAll wires every handler of this package.
func RegisterAll(r Registrar, unlocked *OnAchievementUnlockedHandler, contact *OnContactReceivedHandler) error {
	if err := r.Register(shared.EventAchievementUnlocked, "on_achievement_unlocked", unlocked.Handle); err != nil {
		return err
	}
	return r.Register(shared.EventContactReceived, "on_contact_received", contact.Handle)
}
