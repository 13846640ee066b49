package saved

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// visitorTTL keeps an idle visitor's saved jobs for about six months.
const visitorTTL = 180 * 24 * time.Hour

// maxUpdateAttempts bounds the WATCH retries of one Update.
const maxUpdateAttempts = 10

// RedisSlot stores one visitor's set under jobnotify:savedJobs:<visitor>.
type RedisSlot struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisSlot returns the slot for visitorID.
func NewRedisSlot(rdb redis.UniversalClient, visitorID string) *RedisSlot {
	return &RedisSlot{rdb: rdb, key: "jobnotify:" + SlotKey + ":" + visitorID}
}

func (r *RedisSlot) Read(ctx context.Context) ([]byte, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (r *RedisSlot) Write(ctx context.Context, data []byte) error {
	return r.rdb.Set(ctx, r.key, data, visitorTTL).Err()
}

// Update runs fn under WATCH on the slot key and commits with MULTI/EXEC,
// retrying when another writer touched the key in between.
func (r *RedisSlot) Update(ctx context.Context, fn func([]byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, r.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next, err := fn(raw)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, next, visitorTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.rdb.Watch(ctx, txf, r.key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrContended
}

// RedisSlots hands out RedisSlot values sharing one client.
type RedisSlots struct {
	rdb redis.UniversalClient
}

// NewRedisSlots returns a Slots over rdb.
func NewRedisSlots(rdb redis.UniversalClient) *RedisSlots {
	return &RedisSlots{rdb: rdb}
}

func (r *RedisSlots) For(visitorID string) Slot {
	return NewRedisSlot(r.rdb, visitorID)
}
