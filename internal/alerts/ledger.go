package alerts

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Ledger remembers which items have been announced.
type Ledger interface {
	// Unseen returns the keys that have not been marked yet, in input order.
	Unseen(ctx context.Context, keys []string) ([]string, error)
	Mark(ctx context.Context, keys []string) error
}

// LedgerKey is the Redis set holding announced item keys.
const LedgerKey = "jobnotify:alerts:announced"

// RedisLedger keeps the announced keys in a Redis set.
type RedisLedger struct {
	rdb redis.Cmdable
}

// NewRedisLedger returns a Ledger over rdb.
func NewRedisLedger(rdb redis.Cmdable) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func (l *RedisLedger) Unseen(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	seen, err := l.rdb.SMIsMember(ctx, LedgerKey, members...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for i, k := range keys {
		if !seen[i] {
			out = append(out, k)
		}
	}
	return out, nil
}

func (l *RedisLedger) Mark(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	return l.rdb.SAdd(ctx, LedgerKey, members...).Err()
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func (l *MemoryLedger) Unseen(_ context.Context, keys []string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := l.seen[k]; !ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (l *MemoryLedger) Mark(_ context.Context, keys []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]struct{})
	}
	for _, k := range keys {
		l.seen[k] = struct{}{}
	}
	return nil
}
