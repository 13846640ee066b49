package alerts

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobnotify/internal/listing"
)

const (
	// batchSize keeps each message under Telegram's length limit.
	batchSize    = 10
	defaultPause = 2 * time.Second
)

// Notifier sends the digest of not-yet-announced items.
type Notifier struct {
	sender Sender
	ledger Ledger
	now    func() time.Time
	pause  time.Duration
}

// NewNotifier returns a Notifier pausing between batches for Telegram's rate
// limit.
func NewNotifier(sender Sender, ledger Ledger) *Notifier {
	return &Notifier{sender: sender, ledger: ledger, now: time.Now, pause: defaultPause}
}

// WithClock replaces the time source.
func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

// WithPause replaces the delay between batches.
func (n *Notifier) WithPause(d time.Duration) *Notifier {
	n.pause = d
	return n
}

// Announce sends every unannounced item derived from jobs and returns how
// many were sent. Items are marked only after their batch was delivered, so a
// failed batch is retried on the next run.
func (n *Notifier) Announce(ctx context.Context, jobs []listing.Job) (int, error) {
	candidates := Collect(jobs, n.now())
	if len(candidates) == 0 {
		return 0, nil
	}

	keys := make([]string, len(candidates))
	for i, it := range candidates {
		keys[i] = it.Key()
	}
	unseen, err := n.ledger.Unseen(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("ledger lookup: %w", err)
	}
	pending := make(map[string]bool, len(unseen))
	for _, k := range unseen {
		pending[k] = true
	}

	items := make([]Item, 0, len(unseen))
	for _, it := range candidates {
		if pending[it.Key()] {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return 0, nil
	}

	sent := 0
	batches := Batch(items, batchSize)
	for i, batch := range batches {
		text := FormatBatch(batch, sent, len(items), n.sender.Escape)
		if err := n.sender.Send(ctx, text); err != nil {
			return sent, fmt.Errorf("send batch %d: %w", i+1, err)
		}

		batchKeys := make([]string, len(batch))
		for j, it := range batch {
			batchKeys[j] = it.Key()
		}
		if err := n.ledger.Mark(ctx, batchKeys); err != nil {
			log.Printf("[alerts] Ledger mark failed: %v", err)
		}
		sent += len(batch)

		if i < len(batches)-1 && n.pause > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-time.After(n.pause):
			}
		}
	}
	return sent, nil
}
