package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotRunning is returned when Stop is called and no engine
	// process is currently owned by the supervisor.
	ErrEngineNotRunning = errors.New("engine not running")

	// ErrEngineAlreadyRunning is returned when Start is called while an
	// engine process is already owned by the supervisor.
	ErrEngineAlreadyRunning = errors.New("engine already running")

	// ErrEngineAuth is returned when the engine rejects a request because
	// the auth token does not match. Retrying with the same token will not
	// help, so callers should treat this as fatal.
	ErrEngineAuth = errors.New("engine rejected auth token")
)

// EngineError is a non-2xx response from the engine's management API,
// carrying the status and body verbatim.
type EngineError struct {
	Status int
	Body   string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine returned status %d: %s", e.Status, e.Body)
}

// TransientError wraps a network-level failure (connection refused,
// timeout, reset). Callers may retry the operation.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient engine error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable at the caller's discretion.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
