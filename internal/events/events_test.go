package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnotify/internal/catalog"
	"jobnotify/internal/events"
	"jobnotify/internal/listing"
	"jobnotify/internal/store"
)

type published struct {
	channel string
	payload []byte
}

type fakeRedis struct {
	sent []published
	err  error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.sent = append(f.sent, published{channel: channel, payload: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func TestFromChange(t *testing.T) {
	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	ev, ok := events.FromChange(catalog.Change{Kind: catalog.ChangeJobSaved, JobID: "j1"}, "web", at)
	require.True(t, ok)
	assert.Equal(t, events.Event{Type: events.EventJobSaved, Source: "web", JobID: "j1", At: at}, ev)

	ev, ok = events.FromChange(catalog.Change{Kind: catalog.ChangeMasterData}, "web", at)
	require.True(t, ok)
	assert.Equal(t, events.EventMasterDataChanged, ev.Type)

	_, ok = events.FromChange(catalog.Change{Kind: catalog.ChangeLoaded}, "web", at)
	assert.False(t, ok)
}

func TestPublisher_AttachForwardsMutations(t *testing.T) {
	ctx := context.Background()
	c := catalog.New(store.NewMemory(), catalog.Options{})
	require.NoError(t, c.Load(ctx))

	rdb := &fakeRedis{}
	cancel := events.NewPublisher(rdb, "console-1").Attach(ctx, c)
	defer cancel()

	_, err := c.SaveJob(ctx, listing.Job{ID: "j1", Board: "SSC", Location: "Delhi", PositionName: "Clerk"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteJob(ctx, "j1"))
	require.NoError(t, c.Reload(ctx))
	c.Wait()

	require.Len(t, rdb.sent, 2, "reloads are not published")
	assert.Equal(t, events.Channel, rdb.sent[0].channel)

	var ev events.Event
	require.NoError(t, json.Unmarshal(rdb.sent[1].payload, &ev))
	assert.Equal(t, events.EventJobDeleted, ev.Type)
	assert.Equal(t, "console-1", ev.Source)
	assert.Equal(t, "j1", ev.JobID)
}

func TestPublisher_FailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	c := catalog.New(store.NewMemory(), catalog.Options{})
	require.NoError(t, c.Load(ctx))

	events.NewPublisher(&fakeRedis{err: errors.New("redis down")}, "web").Attach(ctx, c)

	_, err := c.SaveJob(ctx, listing.Job{Board: "SSC", Location: "Delhi", PositionName: "Clerk"})
	assert.NoError(t, err)
}

func TestDecode(t *testing.T) {
	ev, err := events.Decode(`{"type":"EVENT_JOB_SAVED","source":"x","jobId":"j","at":"2024-06-10T12:00:00Z"}`)
	require.NoError(t, err)
	assert.Equal(t, events.EventJobSaved, ev.Type)

	_, err = events.Decode(`{"source":"x"}`)
	assert.Error(t, err)
	_, err = events.Decode(`not json`)
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	a, b := events.NewSource("web"), events.NewSource("web")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "web-")
}

func TestReloader_PicksUpForeignWrites(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	c := catalog.New(st, catalog.Options{})
	require.NoError(t, c.Load(ctx))
	require.Empty(t, c.Snapshot().Jobs)

	require.NoError(t, st.UpsertJob(ctx, listing.Job{ID: "x", Board: "SSC", PositionName: "Clerk", Location: "Delhi"}))
	events.Reloader(ctx, c)(events.Event{Type: events.EventJobSaved, Source: "console-1", JobID: "x"})

	_, ok := c.Job("x")
	assert.True(t, ok)
}
