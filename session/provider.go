package session

import (
	"context"
)

// User is the raw identity the auth provider hands back. The identifier is
// the synthetic email derived from the driver's phone number.
type User struct {
	ID         string
	Identifier string
	Metadata   map[string]string
}

// Session pairs the provider user with its token material.
type Session struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// Auth state change events.
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// AuthAPI is the contract the adapter needs from the auth provider. The
// production implementation is LocalProvider; tests use fakes.
type AuthAPI interface {
	SignInWithPassword(ctx context.Context, identifier, password string) (*Session, error)
	SignUp(ctx context.Context, identifier, password string, metadata map[string]string) (*Session, error)
	ResetPasswordForEmail(ctx context.Context, identifier string) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
	GetSession(ctx context.Context) (*Session, error)
	OnAuthStateChange(fn func(event string, s *Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}
