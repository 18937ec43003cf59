package notification

import (
	"context"

	"focusflow/internal/modules/user"
)

type EventType string

const (
	EventReminderDue EventType = "REMINDER_DUE"
)

// Event is what usecases hand to the dispatcher. Payload is one of the typed
// payload structs below.
type Event struct {
	Type    EventType
	Payload interface{}
}

// ReminderDuePayload carries everything the delivery channels need; the
// dispatcher never reads the reminder back from storage.
type ReminderDuePayload struct {
	ReminderID      uint   `json:"reminder_id"`
	UserID          uint   `json:"user_id"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	ReminderType    string `json:"reminder_type"`
	Priority        string `json:"priority"`
	EscalationLevel int    `json:"escalation_level"`
}

// UserNotificationInfoProvider supplies the per-user delivery targets.
type UserNotificationInfoProvider interface {
	GetUserDeviceTokens(userID uint) ([]user.UserDeviceToken, error)
	GetUserEmail(userID uint) (email string, isVerified bool, err error)
}

// Feed is the in-app delivery channel (websocket hub).
type Feed interface {
	Publish(userID uint, payload interface{})
}

// Dispatcher fans an event out to all delivery channels. Dispatch must not
// block the caller; failures are logged and swallowed.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}
