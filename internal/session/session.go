// Package session holds the authenticated user's bearer token and profile.
// It is the only client-side state that survives process restarts. Stores
// are written by login, registration, logout, and the unauthorized clear;
// everything else only reads.
package session

import (
	"context"
	"time"

	"github.com/lifelink/donorlink/internal/token"
)

// User is the profile record returned by the backend on login.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session pairs a bearer token with the user it belongs to. A session
// without a token is not a session: stores must return nil rather than a
// user record that has lost its credential.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Store persists at most one session.
type Store interface {
	// Save overwrites any prior session.
	Save(ctx context.Context, sess Session) error
	// Read returns the current session, or nil when no token is stored.
	Read(ctx context.Context) (*Session, error)
	// Clear removes the token and user. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error
}

// Valid reports whether the store holds a non-expired token as of now.
// Store read errors count as invalid.
func Valid(ctx context.Context, store Store, now time.Time) bool {
	sess, err := store.Read(ctx)
	if err != nil || sess == nil {
		return false
	}
	return !token.Expired(sess.Token, now)
}
