package access

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned by a UserLookup when no record backs a session.
	ErrUserNotFound = errors.New("user record not found")
	// ErrUserInactive is returned by a UserLookup when the record is deactivated.
	ErrUserInactive = errors.New("user is inactive")
)

// Session is an authenticated session as seen by a client.
type Session struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionEvent is a session lifecycle notification.
type SessionEvent string

const (
	SessionSignedIn  SessionEvent = "SIGNED_IN"  // carries the new session
	SessionSignedOut SessionEvent = "SIGNED_OUT" // no session
)

// SessionHandler is notified of session changes. sess is nil on sign-out.
type SessionHandler func(event SessionEvent, sess *Session)

type (
	// SessionSource supplies the authenticated identity and its lifecycle events.
	SessionSource interface {
		// GetCurrentSession returns the current session, or nil if signed out.
		GetCurrentSession(ctx context.Context) (*Session, error)
		// OnSessionChange registers handler until the returned unsubscribe func is called.
		OnSessionChange(handler SessionHandler) (unsubscribe func(), err error)
	}

	// UserLookup fetches the user record behind a session.
	UserLookup interface {
		// LookupUser returns ErrUserNotFound when no record exists and ErrUserInactive
		// when it is deactivated.
		LookupUser(ctx context.Context, id string) (User, error)
	}

	// PermissionFetcher loads a user's permissions from somewhere other than the role defaults.
	PermissionFetcher interface {
		FetchPermissions(ctx context.Context, userID string) ([]Permission, error)
	}

	// PermissionFetcherFunc adapts a func to a PermissionFetcher.
	PermissionFetcherFunc func(ctx context.Context, userID string) ([]Permission, error)
)

func (fn PermissionFetcherFunc) FetchPermissions(ctx context.Context, userID string) ([]Permission, error) {
	return fn(ctx, userID)
}
