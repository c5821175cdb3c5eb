package exam

import "errors"

// Caller-facing protocol errors. These indicate a caller bug or a stale
// client, never a transient condition; retrying with the same arguments will
// fail again.
var (
	ErrInvalidStudent  = errors.New("invalid student")
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrSessionNotFound = errors.New("session not found")
)
