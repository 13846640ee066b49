// Package auth talks to the identity provider that gates the admin surface.
//
// Provider is the request/response API. GoTrue speaks the hosted GoTrue REST
// API; Local checks a single bcrypt-hashed admin account. Client adds the
// browser-like session surface: a current session plus change notifications.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair is rejected.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrNoSession is returned when a token does not identify a live session.
	ErrNoSession = errors.New("no active session")
)

// ProviderError is any other failure reported by the identity provider.
type ProviderError struct {
	Status int
	Code   string
	Msg    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider %d %s: %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("identity provider %d: %s", e.Status, e.Msg)
}

// User identifies the signed-in operator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the session is past its expiry at now. A zero
// ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Provider is the identity-provider API.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, s *Session) error
	Verify(ctx context.Context, accessToken string) (*Session, error)
}

// FailureMessage renders err for the credential form.
func FailureMessage(err error) string {
	if errors.Is(err, ErrInvalidCredentials) {
		return "Authentication failed: Invalid credentials."
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Msg != "" {
		return pe.Msg
	}
	return err.Error()
}
