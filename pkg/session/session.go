// Package session keeps per-browser state between requests: the article a
// student is reading, and the admin login. Sessions are addressed by an
// opaque id carried in a cookie or in the request body.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the state kept for one client.
type Session struct {
	ID      string
	Article string

	// Subject and Admin are set by a successful /login.
	Subject string
	Admin   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists sessions.
type Store interface {
	// Get returns a copy of the session. Returns ErrNotFound if the
	// session does not exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces the session and refreshes its expiry.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
