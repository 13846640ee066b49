package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Client holds the current session for one interactive operator and notifies
// subscribers on every sign-in and sign-out.
type Client struct {
	provider Provider
	now      func() time.Time

	mu      sync.Mutex
	session *Session
	subs    map[int]func(*Session)
	nextSub int
}

// NewClient returns a Client with no session.
func NewClient(p Provider) *Client {
	return &Client{provider: p, now: time.Now, subs: make(map[int]func(*Session))}
}

// WithClock replaces the time source used for expiry checks. Intended for
// tests.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// GetSession returns the current session, or nil when signed out or expired.
// Finding the session expired counts as a sign-out: subscribers receive nil.
func (c *Client) GetSession(_ context.Context) (*Session, error) {
	c.mu.Lock()
	cur := c.session
	c.mu.Unlock()
	if cur == nil {
		return nil, nil
	}
	if cur.Expired(c.now()) {
		c.expire(cur)
		return nil, nil
	}
	s := *cur
	return &s, nil
}

// SignIn authenticates with the provider. On success the session becomes
// current and subscribers are notified. A session that is already expired
// is refused with ErrNoSession.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	s, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	if s.Expired(c.now()) {
		return ErrNoSession
	}
	c.set(s)
	return nil
}

// SignOut ends the session at the provider and locally. The local session is
// cleared even when the provider call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	err := c.provider.SignOut(ctx, s)
	if err != nil {
		slog.Warn("provider sign-out failed", "err", err)
	}
	c.set(nil)
	return err
}

// Subscribe registers fn for every session change. fn receives nil on
// sign-out.
func (c *Client) Subscribe(fn func(*Session)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Client) set(s *Session) {
	c.mu.Lock()
	c.session = s
	fns := c.subscribersLocked()
	c.mu.Unlock()

	notify(fns, s)
}

// expire clears s if it is still the current session.
func (c *Client) expire(s *Session) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.session = nil
	fns := c.subscribersLocked()
	c.mu.Unlock()

	slog.Info("session expired", "email", s.User.Email)
	notify(fns, nil)
}

func (c *Client) subscribersLocked() []func(*Session) {
	fns := make([]func(*Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(*Session), s *Session) {
	for _, fn := range fns {
		if s == nil {
			fn(nil)
			continue
		}
		cp := *s
		fn(&cp)
	}
}
