package command

import (
	"context"
	"fmt"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationCommands dismisses or clears a device's unlock notifications.
type NotificationCommands struct {
	sessions SessionOpener
}

func NewNotificationCommands(sessions SessionOpener) *NotificationCommands {
	return &NotificationCommands{sessions: sessions}
}

// Dismiss removes one notification. Unknown ids report
// shared.ErrNotificationNotFound.
func (c *NotificationCommands) Dismiss(ctx context.Context, device shared.DeviceID, id string) error {
	session, err := c.sessions.Open(ctx, device)
	if err != nil {
		return fmt.Errorf("dismiss_notification: %w", err)
	}
	if !session.Notifications().Dismiss(id) {
		return shared.ErrNotificationNotFound
	}
	return nil
}

// Clear empties the queue and its history.
func (c *NotificationCommands) Clear(ctx context.Context, device shared.DeviceID) error {
	session, err := c.sessions.Open(ctx, device)
	if err != nil {
		return fmt.Errorf("clear_notifications: %w", err)
	}
	session.Notifications().Clear()
	return nil
}
