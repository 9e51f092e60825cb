package server

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for registry and session conditions.
var (
	// ErrDuplicateID is returned when a join proposes an id that is
	// already registered.
	ErrDuplicateID = errors.New("server: duplicate client id")

	// ErrInvalidUsername is returned when a join carries an empty or
	// blank username.
	ErrInvalidUsername = errors.New("server: invalid username")

	// ErrSessionClosed is returned when a message is enqueued to a
	// session that has already shut down.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrBacklogExceeded is returned when a session's reliable queue is
	// at its high-water mark. The router treats the session as
	// unresponsive and disconnects it.
	ErrBacklogExceeded = errors.New("server: reliable backlog exceeded")

	// ErrHandshakeFailed is returned when a connection does not produce
	// a valid Join within the handshake window.
	ErrHandshakeFailed = errors.New("server: handshake failed")
)

// SessionError carries the session and operation an error occurred in.
type SessionError struct {
	SessionID uuid.UUID
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
