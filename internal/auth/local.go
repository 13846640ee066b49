package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a Local session stays valid.
const DefaultSessionTTL = 12 * time.Hour

// Local is a Provider for a single admin account whose password is stored as
// a bcrypt hash. Sessions are opaque random tokens held in memory.
type Local struct {
	email string
	hash  []byte
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewLocal returns a Local provider. A non-positive ttl uses DefaultSessionTTL.
func NewLocal(email, passwordHash string, ttl time.Duration) *Local {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Local{
		email:    strings.TrimSpace(email),
		hash:     []byte(passwordHash),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

func (l *Local) SignIn(_ context.Context, email, password string) (*Session, error) {
	if !strings.EqualFold(strings.TrimSpace(email), l.email) {
		// Still run bcrypt so unknown emails cost the same as bad passwords.
		_ = bcrypt.CompareHashAndPassword(l.hash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(l.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s := &Session{
		AccessToken: uuid.NewString(),
		ExpiresAt:   l.now().Add(l.ttl),
		User:        User{ID: "local-admin", Email: l.email},
	}

	l.mu.Lock()
	l.sweepLocked(l.now())
	l.sessions[s.AccessToken] = s
	l.mu.Unlock()

	out := *s
	return &out, nil
}

func (l *Local) SignOut(_ context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	l.mu.Lock()
	delete(l.sessions, s.AccessToken)
	l.mu.Unlock()
	return nil
}

func (l *Local) Verify(_ context.Context, accessToken string) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[accessToken]
	if !ok {
		return nil, ErrNoSession
	}
	if s.Expired(l.now()) {
		delete(l.sessions, accessToken)
		return nil, ErrNoSession
	}
	out := *s
	return &out, nil
}

// sweepLocked drops sessions that expired without a sign-out or a Verify.
func (l *Local) sweepLocked(now time.Time) {
	for token, s := range l.sessions {
		if s.Expired(now) {
			delete(l.sessions, token)
		}
	}
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
