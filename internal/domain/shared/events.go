// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Collection-changed events feed the live query hub; the rest feed the
// gamification and notification handlers.
const (
	// Collection events (one per synced collection, emitted on every write)
	EventNotesChanged    EventType = "collection.notes_changed"
	EventTasksChanged    EventType = "collection.tasks_changed"
	EventScheduleChanged EventType = "collection.schedule_changed"
	EventGradesChanged   EventType = "collection.grades_changed"
	EventFocusChanged    EventType = "collection.focus_sessions_changed"
	EventProfileChanged  EventType = "collection.profiles_changed"

	// Task events
	EventTaskCompleted EventType = "task.completed"
	EventTaskReopened  EventType = "task.reopened"

	// Focus events
	EventFocusSessionRecorded EventType = "focus.session_recorded"

	// Progress events
	EventXPGained      EventType = "progress.xp_gained"
	EventLevelUp       EventType = "progress.level_up"
	EventBadgeUnlocked EventType = "progress.badge_unlocked"

	// Identity events
	EventUserRegistered EventType = "identity.registered"
	EventUserSignedOut  EventType = "identity.signed_out"

	// Notification events
	EventNotificationRaised EventType = "notification.raised"
)

// CollectionEventTypes lists every collection-changed event type, keyed by
// collection name. The live query hub subscribes to all of them.
var CollectionEventTypes = map[string]EventType{
	"notes":          EventNotesChanged,
	"tasks":          EventTasksChanged,
	"schedule":       EventScheduleChanged,
	"grades":         EventGradesChanged,
	"focus_sessions": EventFocusChanged,
	"profiles":       EventProfileChanged,
}

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
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
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
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Collection Events
// ═══════════════════════════════════════════════════════════════════════════

// CollectionChangedEvent is emitted after any write to a synced collection.
// It carries no record data: subscribers re-read the collection and receive a
// full snapshot, mirroring the document store's delivery model.
type CollectionChangedEvent struct {
	BaseEvent
	Collection string `json:"collection"`
	UserID     string `json:"user_id"`
}

// Payload implements Event interface.
func (e CollectionChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"collection": e.Collection,
		"user_id":    e.UserID,
	}
}

// NewCollectionChangedEvent creates a change notification for a collection.
// Callers are expected to use the names listed in CollectionEventTypes.
func NewCollectionChangedEvent(collection, userID string) CollectionChangedEvent {
	eventType, ok := CollectionEventTypes[collection]
	if !ok {
		eventType = EventNotesChanged
	}
	return CollectionChangedEvent{
		BaseEvent:  NewBaseEvent(eventType, userID),
		Collection: collection,
		UserID:     userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Task Events
// ═══════════════════════════════════════════════════════════════════════════

// TaskCompletedEvent is emitted when a task's completion flag flips to true.
type TaskCompletedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
}

// Payload implements Event interface.
func (e TaskCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"task_id": e.TaskID,
		"title":   e.Title,
	}
}

// NewTaskCompletedEvent creates a new TaskCompletedEvent.
func NewTaskCompletedEvent(userID, taskID, title string) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent: NewBaseEvent(EventTaskCompleted, userID),
		UserID:    userID,
		TaskID:    taskID,
		Title:     title,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Focus Events
// ═══════════════════════════════════════════════════════════════════════════

// FocusSessionRecordedEvent is emitted when a completed focus session is saved.
type FocusSessionRecordedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	SessionID       string `json:"session_id"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Payload implements Event interface.
func (e FocusSessionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"session_id":       e.SessionID,
		"duration_minutes": e.DurationMinutes,
	}
}

// NewFocusSessionRecordedEvent creates a new FocusSessionRecordedEvent.
func NewFocusSessionRecordedEvent(userID, sessionID string, durationMinutes int) FocusSessionRecordedEvent {
	return FocusSessionRecordedEvent{
		BaseEvent:       NewBaseEvent(EventFocusSessionRecorded, userID),
		UserID:          userID,
		SessionID:       sessionID,
		DurationMinutes: durationMinutes,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a user gains XP.
type XPGainedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // e.g., "task_completion", "focus_session"
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID string, amount, newTotal int, source string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID),
		UserID:    userID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted exactly once per level crossing, after the new level
// has been persisted. Replayed snapshots of the same XP value do not re-emit it.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// BadgeUnlockedEvent is emitted when a badge is added to a user's badge set.
type BadgeUnlockedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	BadgeID string `json:"badge_id"`
}

// Payload implements Event interface.
func (e BadgeUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"badge_id": e.BadgeID,
	}
}

// NewBadgeUnlockedEvent creates a new BadgeUnlockedEvent.
func NewBadgeUnlockedEvent(userID, badgeID string) BadgeUnlockedEvent {
	return BadgeUnlockedEvent{
		BaseEvent: NewBaseEvent(EventBadgeUnlocked, userID),
		UserID:    userID,
		BadgeID:   badgeID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Identity Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a new account is created.
type UserRegisteredEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Guest       bool   `json:"guest"`
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"email":        e.Email,
		"display_name": e.DisplayName,
		"guest":        e.Guest,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, email, displayName string, guest bool) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventUserRegistered, userID),
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
		Guest:       guest,
	}
}

// UserSignedOutEvent is emitted on sign-out so dependent caches (for example
// the stored calendar access token) can be cleared.
type UserSignedOutEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// Payload implements Event interface.
func (e UserSignedOutEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"user_id": e.UserID}
}

// NewUserSignedOutEvent creates a new UserSignedOutEvent.
func NewUserSignedOutEvent(userID string) UserSignedOutEvent {
	return UserSignedOutEvent{
		BaseEvent: NewBaseEvent(EventUserSignedOut, userID),
		UserID:    userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification Events
// ═══════════════════════════════════════════════════════════════════════════

// NotificationRaisedEvent carries a user-facing message (level-up celebration,
// badge unlock, due-today digest) for delivery over the live event stream.
type NotificationRaisedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"` // "level_up", "badge", "reminder"
	Message string `json:"message"`
}

// Payload implements Event interface.
func (e NotificationRaisedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"kind":    e.Kind,
		"message": e.Message,
	}
}

// NewNotificationRaisedEvent creates a new NotificationRaisedEvent.
func NewNotificationRaisedEvent(userID, kind, message string) NotificationRaisedEvent {
	return NotificationRaisedEvent{
		BaseEvent: NewBaseEvent(EventNotificationRaised, userID),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
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
