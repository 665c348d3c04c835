// Package session keeps track of who is logged in.
//
// Each login creates a server-side Session record in a Store. The browser
// only ever sees a signed token naming the record's ID, so every concurrent
// visitor has an independent session and logging out really ends it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Store when no live session has the given ID.
var ErrNotFound = errors.New("session: not found")

// Session is one authenticated browser.
//
// Only the username is stored. Handlers load the current User from the
// document store on every request, so profile edits and votes are visible
// immediately without refreshing a cached copy.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	// Save inserts or replaces a session. It expires at s.ExpiresAt.
	Save(ctx context.Context, s *Session) error

	// Get returns the session with the given ID, or ErrNotFound if it does
	// not exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}

// Open returns the Store for backend: "memory" or "redis" (using redisURL).
func Open(ctx context.Context, backend, redisURL string) (Store, error) {
	switch backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, redisURL)
	default:
		return nil, fmt.Errorf("session: unknown store %q", backend)
	}
}
