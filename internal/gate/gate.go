package gate

import (
	"context"
	"sync"
	"time"

	"jobnotify/internal/auth"
)

const (
	maxLoginFailures = 5
	lockoutDuration  = time.Minute
)

// SessionSource is the part of auth.Client the gate listens to.
type SessionSource interface {
	GetSession(ctx context.Context) (*auth.Session, error)
	Subscribe(fn func(*auth.Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// State is what the view layer renders.
type State struct {
	Mode       Mode
	PromptOpen bool
	Locked     bool
}

// Gate is the view-mode state machine. It starts in user mode.
type Gate struct {
	mu          sync.Mutex
	mode        Mode
	promptOpen  bool
	failures    int
	lockedUntil time.Time
	matcher     *SequenceMatcher
	now         func() time.Time
	listeners   []func(State)
}

// New returns a Gate in user mode. A nil matcher uses the default secret.
func New(matcher *SequenceMatcher) *Gate {
	if matcher == nil {
		matcher = NewSequenceMatcher("", 0)
	}
	return &Gate{mode: ModeUser, matcher: matcher, now: time.Now}
}

// WithClock replaces the time source used for the lockout.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// OnChange registers fn for every state change.
func (g *Gate) OnChange(fn func(State)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// Mode returns the current mode.
func (g *Gate) Mode() Mode { return g.State().Mode }

// PromptOpen reports whether the credential prompt is showing.
func (g *Gate) PromptOpen() bool { return g.State().PromptOpen }

// Attach checks the current session once and follows every later session
// change. The returned func stops following.
func (g *Gate) Attach(ctx context.Context, src SessionSource) (detach func(), err error) {
	unsubscribe := src.Subscribe(g.Observe)
	s, err := src.GetSession(ctx)
	if err != nil {
		return unsubscribe, err
	}
	if s != nil {
		g.Observe(s)
	}
	return unsubscribe, nil
}

// Observe applies a session-change notification: an active session moves to
// admin and closes the prompt, nil moves back to user.
func (g *Gate) Observe(s *auth.Session) {
	g.mu.Lock()
	if s != nil {
		g.promptOpen = false
		g.failures = 0
		g.lockedUntil = time.Time{}
		g.transitionLocked(ModeAdmin)
	} else {
		g.transitionLocked(ModeUser)
	}
	st := g.stateLocked()
	g.mu.Unlock()

	g.emit(st)
}

// SignOut ends the session and returns to user mode even if the provider call
// fails.
func (g *Gate) SignOut(ctx context.Context, src SessionSource) error {
	err := src.SignOut(ctx)
	g.Observe(nil)
	return err
}

// KeyPress feeds key to the sequence matcher. Keys are ignored outside user
// mode, while the prompt is open and while locked. It reports whether the
// prompt was opened by this key.
func (g *Gate) KeyPress(key string, at time.Time) bool {
	g.mu.Lock()
	if g.mode != ModeUser || g.promptOpen || g.lockedLocked(at) {
		g.mu.Unlock()
		return false
	}
	if !g.matcher.Feed(key, at) {
		g.mu.Unlock()
		return false
	}
	g.promptOpen = true
	st := g.stateLocked()
	g.mu.Unlock()

	g.emit(st)
	return true
}

// ClosePrompt dismisses the credential prompt without signing in.
func (g *Gate) ClosePrompt() {
	g.mu.Lock()
	if !g.promptOpen {
		g.mu.Unlock()
		return
	}
	g.promptOpen = false
	st := g.stateLocked()
	g.mu.Unlock()

	g.emit(st)
}

// RecordLoginFailure counts a rejected sign-in. After five in a row the
// prompt closes and the gesture is ignored for a minute.
func (g *Gate) RecordLoginFailure() {
	g.mu.Lock()
	g.failures++
	if g.failures < maxLoginFailures {
		g.mu.Unlock()
		return
	}
	g.failures = 0
	g.lockedUntil = g.now().Add(lockoutDuration)
	g.promptOpen = false
	st := g.stateLocked()
	g.mu.Unlock()

	g.emit(st)
}

func (g *Gate) transitionLocked(to Mode) {
	if g.mode == to || !IsTransitionAllowed(g.mode, to) {
		return
	}
	g.mode = to
	g.matcher.Reset()
}

func (g *Gate) lockedLocked(at time.Time) bool {
	return !g.lockedUntil.IsZero() && at.Before(g.lockedUntil)
}

func (g *Gate) stateLocked() State {
	return State{Mode: g.mode, PromptOpen: g.promptOpen, Locked: g.lockedLocked(g.now())}
}

func (g *Gate) emit(st State) {
	g.mu.Lock()
	fns := append([]func(State){}, g.listeners...)
	g.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
