package reminder

import "errors"

var (
	// ErrReminderNotFound is returned when a reminder id does not resolve for
	// the requesting user.
	ErrReminderNotFound = errors.New("reminder not found")
	ErrReminderInternal = errors.New("internal error")

	// ErrReminderAccessDenied is returned when a user touches a reminder they
	// do not own.
	ErrReminderAccessDenied = errors.New("access to reminder denied")

	// ErrReminderTerminal is returned for snooze/response operations against
	// a reminder that already reached a terminal status.
	ErrReminderTerminal = errors.New("reminder is in a terminal state")

	// ErrReminderInvalidInput covers validation failures not caught by the
	// struct validator.
	ErrReminderInvalidInput = errors.New("invalid input for reminder operation")

	ErrPreferencesNotFound = errors.New("reminder preferences not found")
)
