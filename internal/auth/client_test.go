package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnotify/internal/auth"
)

func TestClient_SessionLifecycle(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	l := auth.NewLocal("admin@example.com", hash, time.Hour)
	c := auth.NewClient(l)
	ctx := context.Background()

	s, err := c.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	var events []*auth.Session
	unsubscribe := c.Subscribe(func(s *auth.Session) { events = append(events, s) })

	err = c.SignIn(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Empty(t, events, "failed sign-in does not notify")

	require.NoError(t, c.SignIn(ctx, "admin@example.com", "s3cret"))
	s, err = c.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NoError(t, c.SignOut(ctx))
	s, _ = c.GetSession(ctx)
	assert.Nil(t, s)

	_, err = l.Verify(ctx, events[0].AccessToken)
	assert.ErrorIs(t, err, auth.ErrNoSession, "sign-out reaches the provider")

	unsubscribe()
	require.NoError(t, c.SignIn(ctx, "admin@example.com", "s3cret"))

	require.Len(t, events, 2)
	assert.NotNil(t, events[0])
	assert.Nil(t, events[1])
}

func TestClient_ExpiryNotifiesSubscribers(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	l := auth.NewLocal("admin@example.com", hash, time.Minute).WithClock(clock)
	c := auth.NewClient(l).WithClock(clock)
	ctx := context.Background()

	var events []*auth.Session
	c.Subscribe(func(s *auth.Session) { events = append(events, s) })

	require.NoError(t, c.SignIn(ctx, "admin@example.com", "s3cret"))
	s, err := c.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)

	now = now.Add(2 * time.Minute)
	s, err = c.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.Len(t, events, 2)
	assert.NotNil(t, events[0])
	assert.Nil(t, events[1], "expiry is reported as a sign-out")

	s, _ = c.GetSession(ctx)
	assert.Nil(t, s)
	assert.Len(t, events, 2, "expiry is reported once")
}

func TestClient_RefusesAlreadyExpiredSession(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	issued := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	l := auth.NewLocal("admin@example.com", hash, time.Minute).WithClock(func() time.Time { return issued })
	c := auth.NewClient(l).WithClock(func() time.Time { return issued.Add(time.Hour) })

	var events []*auth.Session
	c.Subscribe(func(s *auth.Session) { events = append(events, s) })

	err = c.SignIn(context.Background(), "admin@example.com", "s3cret")
	assert.ErrorIs(t, err, auth.ErrNoSession)
	assert.Empty(t, events)
}
