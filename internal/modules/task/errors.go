package task

import "errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskInternal = errors.New("internal error")

	// ErrTaskAccessDenied is returned when a user touches a task they do not
	// own.
	ErrTaskAccessDenied = errors.New("access to task denied")

	// ErrTaskAlreadyCompleted is returned for operations a completed task no
	// longer supports.
	ErrTaskAlreadyCompleted = errors.New("operation not allowed on a completed task")

	ErrTaskInvalidInput = errors.New("invalid input for task operation")
)
