package focus

import "errors"

var (
	ErrSessionNotFound = errors.New("focus session not found")
	ErrSessionInternal = errors.New("internal error")

	// ErrSessionAlreadyActive is returned when a user starts a session while
	// another one is still running.
	ErrSessionAlreadyActive = errors.New("a focus session is already active")

	// ErrNoActiveSession is returned when stopping or querying with no
	// running session.
	ErrNoActiveSession = errors.New("no active focus session")
)
