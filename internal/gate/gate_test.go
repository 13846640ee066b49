package gate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnotify/internal/auth"
	"jobnotify/internal/gate"
)

// fakeSessions is a SessionSource driven by the test.
type fakeSessions struct {
	current    *auth.Session
	subs       []func(*auth.Session)
	signOutErr error
}

func (f *fakeSessions) GetSession(context.Context) (*auth.Session, error) { return f.current, nil }

func (f *fakeSessions) Subscribe(fn func(*auth.Session)) func() {
	f.subs = append(f.subs, fn)
	return func() { f.subs = nil }
}

func (f *fakeSessions) SignOut(context.Context) error {
	f.push(nil)
	return f.signOutErr
}

func (f *fakeSessions) push(s *auth.Session) {
	f.current = s
	for _, fn := range f.subs {
		fn(s)
	}
}

func typeSecret(g *gate.Gate, at time.Time) bool {
	opened := false
	for i, k := range []string{")", "&", "("} {
		opened = g.KeyPress(k, at.Add(time.Duration(i)*100*time.Millisecond))
	}
	return opened
}

func TestGate_StartsInUserMode(t *testing.T) {
	g := gate.New(nil)
	assert.Equal(t, gate.ModeUser, g.Mode())
	assert.False(t, g.PromptOpen())
}

func TestGate_AttachWithExistingSession(t *testing.T) {
	src := &fakeSessions{current: &auth.Session{AccessToken: "tok"}}
	g := gate.New(nil)

	_, err := g.Attach(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, gate.ModeAdmin, g.Mode())
}

func TestGate_FollowsSessionChanges(t *testing.T) {
	src := &fakeSessions{}
	g := gate.New(nil)
	detach, err := g.Attach(context.Background(), src)
	require.NoError(t, err)

	require.True(t, typeSecret(g, t0))
	assert.True(t, g.PromptOpen())

	src.push(&auth.Session{AccessToken: "tok"})
	assert.Equal(t, gate.ModeAdmin, g.Mode())
	assert.False(t, g.PromptOpen(), "a session closes the prompt")

	src.push(nil)
	assert.Equal(t, gate.ModeUser, g.Mode())

	detach()
	src.push(&auth.Session{AccessToken: "tok"})
	assert.Equal(t, gate.ModeUser, g.Mode())
}

func TestGate_GestureAloneNeverGrantsAdmin(t *testing.T) {
	g := gate.New(nil)
	require.True(t, typeSecret(g, t0))
	assert.Equal(t, gate.ModeUser, g.Mode())
}

func TestGate_KeysIgnoredWhilePromptOpenOrAdmin(t *testing.T) {
	g := gate.New(nil)
	require.True(t, typeSecret(g, t0))
	assert.False(t, typeSecret(g, t0.Add(time.Minute)), "prompt already open")

	g.ClosePrompt()
	assert.False(t, g.PromptOpen())

	g.Observe(&auth.Session{})
	assert.False(t, typeSecret(g, t0.Add(2*time.Minute)), "admin mode ignores the gesture")
}

func TestGate_SignOutReturnsToUserEvenOnError(t *testing.T) {
	src := &fakeSessions{signOutErr: errors.New("network")}
	g := gate.New(nil)
	g.Observe(&auth.Session{})

	err := g.SignOut(context.Background(), src)
	assert.Error(t, err)
	assert.Equal(t, gate.ModeUser, g.Mode())
}

func TestGate_LockoutAfterRepeatedFailures(t *testing.T) {
	now := t0
	g := gate.New(nil).WithClock(func() time.Time { return now })

	require.True(t, typeSecret(g, now))
	for i := 0; i < 5; i++ {
		g.RecordLoginFailure()
	}
	st := g.State()
	assert.True(t, st.Locked)
	assert.False(t, st.PromptOpen)

	assert.False(t, typeSecret(g, now.Add(10*time.Second)), "locked")

	now = now.Add(2 * time.Minute)
	assert.False(t, g.State().Locked)
	assert.True(t, typeSecret(g, now))
}

func TestGate_OnChange(t *testing.T) {
	g := gate.New(nil)
	var states []gate.State
	g.OnChange(func(s gate.State) { states = append(states, s) })

	typeSecret(g, t0)
	g.Observe(&auth.Session{})
	g.Observe(nil)

	require.Len(t, states, 3)
	assert.True(t, states[0].PromptOpen)
	assert.Equal(t, gate.ModeAdmin, states[1].Mode)
	assert.Equal(t, gate.ModeUser, states[2].Mode)
}

func TestTransitions(t *testing.T) {
	assert.True(t, gate.IsTransitionAllowed(gate.ModeUser, gate.ModeAdmin))
	assert.True(t, gate.IsTransitionAllowed(gate.ModeAdmin, gate.ModeUser))
	assert.False(t, gate.IsTransitionAllowed(gate.ModeUser, gate.ModeUser))

	m, err := gate.ParseMode("admin")
	require.NoError(t, err)
	assert.Equal(t, gate.ModeAdmin, m)
	_, err = gate.ParseMode("root")
	assert.Error(t, err)
}

func TestGate_ExpiredSessionReturnsToUser(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	now := t0
	clock := func() time.Time { return now }
	client := auth.NewClient(auth.NewLocal("admin@example.com", hash, time.Minute).WithClock(clock)).WithClock(clock)
	ctx := context.Background()

	g := gate.New(nil)
	_, err = g.Attach(ctx, client)
	require.NoError(t, err)

	require.NoError(t, client.SignIn(ctx, "admin@example.com", "s3cret"))
	assert.Equal(t, gate.ModeAdmin, g.Mode())

	now = now.Add(2 * time.Minute)
	s, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, gate.ModeUser, g.Mode())
}
