// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types published on the bus.
const (
	// Gamification events
	EventAchievementUnlocked EventType = "gamification.achievement_unlocked"
	EventLevelUp             EventType = "gamification.level_up"
	EventProgressReset       EventType = "gamification.progress_reset"

	// Visitor events
	EventVisitorReturned EventType = "visitor.returned"

	// Portfolio events
	EventContactReceived EventType = "portfolio.contact_received"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Gamification Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted once per achievement transition to
// unlocked. The aggregate is the visitor device.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	Category      string `json:"category"`
	Points        int    `json:"points"`

	// Achievement carries the full domain value for in-process subscribers.
	// It is not part of the payload.
	Achievement any `json:"-"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"title":          e.Title,
		"description":    e.Description,
		"icon":           e.Icon,
		"category":       e.Category,
		"points":         e.Points,
	}
}

// NewAchievementUnlockedEvent creates an AchievementUnlockedEvent for device.
// achievement is passed through untouched for in-process subscribers.
func NewAchievementUnlockedEvent(deviceID, achievementID, title, description, icon, category string, points int, achievement any) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, deviceID),
		AchievementID: achievementID,
		Title:         title,
		Description:   description,
		Icon:          icon,
		Category:      category,
		Points:        points,
		Achievement:   achievement,
	}
}

// LevelUpEvent is emitted when a visitor's level increases.
type LevelUpEvent struct {
	BaseEvent
	OldLevel    int `json:"old_level"`
	NewLevel    int `json:"new_level"`
	TotalPoints int `json:"total_points"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level":    e.OldLevel,
		"new_level":    e.NewLevel,
		"total_points": e.TotalPoints,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(deviceID string, oldLevel, newLevel, totalPoints int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent:   NewBaseEvent(EventLevelUp, deviceID),
		OldLevel:    oldLevel,
		NewLevel:    newLevel,
		TotalPoints: totalPoints,
	}
}

// ProgressResetEvent is emitted when a visitor wipes their progress.
type ProgressResetEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewProgressResetEvent creates a new ProgressResetEvent.
func NewProgressResetEvent(deviceID string) ProgressResetEvent {
	return ProgressResetEvent{BaseEvent: NewBaseEvent(EventProgressReset, deviceID)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Visitor Events
// ═══════════════════════════════════════════════════════════════════════════

// VisitorReturnedEvent is emitted when a stored visitor starts a new session.
type VisitorReturnedEvent struct {
	BaseEvent
	TotalVisits       int `json:"total_visits"`
	ConsecutiveVisits int `json:"consecutive_visits"`
}

// Payload implements Event interface.
func (e VisitorReturnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"total_visits":       e.TotalVisits,
		"consecutive_visits": e.ConsecutiveVisits,
	}
}

// NewVisitorReturnedEvent creates a new VisitorReturnedEvent.
func NewVisitorReturnedEvent(deviceID string, totalVisits, consecutive int) VisitorReturnedEvent {
	return VisitorReturnedEvent{
		BaseEvent:         NewBaseEvent(EventVisitorReturned, deviceID),
		TotalVisits:       totalVisits,
		ConsecutiveVisits: consecutive,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Portfolio Events
// ═══════════════════════════════════════════════════════════════════════════

// ContactReceivedEvent is emitted when a contact form message is stored.
type ContactReceivedEvent struct {
	BaseEvent
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProjectType string `json:"project_type,omitempty"`
}

// Payload implements Event interface.
func (e ContactReceivedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":         e.Name,
		"email":        e.Email,
		"project_type": e.ProjectType,
	}
}

// NewContactReceivedEvent creates a new ContactReceivedEvent.
func NewContactReceivedEvent(messageID, name, email, projectType string) ContactReceivedEvent {
	return ContactReceivedEvent{
		BaseEvent:   NewBaseEvent(EventContactReceived, messageID),
		Name:        name,
		Email:       email,
		ProjectType: projectType,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
