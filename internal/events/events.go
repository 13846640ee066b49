// Package events publishes catalog changes over Redis pub/sub so that other
// processes sharing the store can reload.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"jobnotify/internal/catalog"
)

// Channel is the Redis channel carrying catalog events.
const Channel = "jobnotify:catalog"

// Type identifies an event.
type Type string

const (
	EventJobSaved          Type = "EVENT_JOB_SAVED"
	EventJobDeleted        Type = "EVENT_JOB_DELETED"
	EventMasterDataChanged Type = "EVENT_MASTER_DATA_CHANGED"
)

// Event is the JSON payload published on Channel.
type Event struct {
	Type   Type      `json:"type"`
	Source string    `json:"source"`
	JobID  string    `json:"jobId,omitempty"`
	At     time.Time `json:"at"`
}

// NewSource returns an identifier for this process, e.g. "web-3f2a9c1d".
func NewSource(prefix string) string {
	host, _ := os.Hostname()
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if host == "" {
		return prefix + "-" + id
	}
	return fmt.Sprintf("%s-%s-%s", prefix, host, id)
}

// FromChange converts a catalog change into an event. Loads are not
// published.
func FromChange(ch catalog.Change, source string, at time.Time) (Event, bool) {
	ev := Event{Source: source, JobID: ch.JobID, At: at.UTC()}
	switch ch.Kind {
	case catalog.ChangeJobSaved:
		ev.Type = EventJobSaved
	case catalog.ChangeJobDeleted:
		ev.Type = EventJobDeleted
	case catalog.ChangeMasterData:
		ev.Type = EventMasterDataChanged
	default:
		return Event{}, false
	}
	return ev, true
}

// ─── Publisher ───────────────────────────────────────────────────────────────

// redisPublisher is the part of *redis.Client the Publisher needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher forwards catalog changes to Channel.
type Publisher struct {
	rdb    redisPublisher
	source string
	now    func() time.Time
}

// NewPublisher returns a Publisher tagging events with source.
func NewPublisher(rdb redisPublisher, source string) *Publisher {
	return &Publisher{rdb: rdb, source: source, now: time.Now}
}

// Publish sends ev on Channel.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Attach publishes every subsequent mutation of c. Publish failures are
// logged and never reach the caller of the mutation.
func (p *Publisher) Attach(ctx context.Context, c *catalog.Catalog) (cancel func()) {
	return c.Subscribe(func(ch catalog.Change) {
		ev, ok := FromChange(ch, p.source, p.now())
		if !ok {
			return
		}
		if err := p.Publish(ctx, ev); err != nil {
			slog.Warn("catalog event publish failed", "type", ev.Type, "err", err)
		}
	})
}

// ─── Listener ────────────────────────────────────────────────────────────────

// Decode parses a payload received on Channel.
func Decode(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode catalog event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("decode catalog event: missing type")
	}
	return ev, nil
}

// Listen subscribes to Channel and calls handle for every event published by
// another source. It returns when ctx is cancelled.
func Listen(ctx context.Context, rdb *redis.Client, source string, handle func(Event)) error {
	sub := rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			ev, err := Decode(msg.Payload)
			if err != nil {
				slog.Warn("ignoring catalog event", "err", err)
				continue
			}
			if ev.Source == source {
				continue
			}
			handle(ev)
		}
	}
}

// Reloader returns a handler that reloads c after a foreign event.
func Reloader(ctx context.Context, c *catalog.Catalog) func(Event) {
	return func(ev Event) {
		if err := c.Reload(ctx); err != nil {
			slog.Warn("catalog reload after event failed", "type", ev.Type, "err", err)
			return
		}
		slog.Info("catalog reloaded", "type", ev.Type, "source", ev.Source)
	}
}
