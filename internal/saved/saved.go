// Package saved keeps a visitor's saved job identifiers.
//
// The set is persisted as a JSON array of strings in a Slot. A slot that does
// not parse is treated as empty.
package saved

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// SlotKey names the slot in every back-end.
const SlotKey = "savedJobs"

// Slot is a single key-value cell holding the serialised set.
type Slot interface {
	// Read returns nil, nil when the slot has never been written.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Updater is a Slot that can apply a read-modify-write as one step. fn gets
// the current contents (nil when unwritten) and returns the replacement.
type Updater interface {
	Update(ctx context.Context, fn func(raw []byte) ([]byte, error)) error
}

// ErrContended is returned when an atomic update kept losing to concurrent
// writers.
var ErrContended = errors.New("saved jobs slot is contended")

// Set is an insertion-ordered set of job identifiers.
type Set struct {
	ids []string
}

// NewSet returns a set holding ids, duplicates dropped.
func NewSet(ids ...string) *Set {
	s := &Set{ids: []string{}}
	for _, id := range ids {
		if !s.Has(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Has reports whether id is saved.
func (s *Set) Has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle adds id when absent and removes it when present. It returns whether
// id is saved afterwards.
func (s *Set) Toggle(id string) bool {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

// IDs returns a copy of the identifiers in insertion order.
func (s *Set) IDs() []string {
	return append([]string{}, s.ids...)
}

// Len returns the number of saved identifiers.
func (s *Set) Len() int { return len(s.ids) }

// Load reads the set from slot. Read and parse failures are logged and yield
// an empty set.
func Load(ctx context.Context, slot Slot) *Set {
	raw, err := slot.Read(ctx)
	if err != nil {
		slog.Warn("failed to read saved jobs", "err", err)
		return NewSet()
	}
	return parse(raw)
}

func parse(raw []byte) *Set {
	if len(raw) == 0 {
		return NewSet()
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		slog.Warn("failed to parse saved jobs from storage", "err", err)
		return NewSet()
	}
	return NewSet(ids...)
}

// Toggle flips id in the set stored in slot and reports whether it is saved
// afterwards. An Updater slot applies the flip atomically; any other slot is
// read and rewritten, and the last writer wins. A read failure is returned
// rather than overwriting the slot.
func Toggle(ctx context.Context, slot Slot, id string) (bool, error) {
	var on bool
	flip := func(raw []byte) ([]byte, error) {
		set := parse(raw)
		on = set.Toggle(id)
		return json.Marshal(set.IDs())
	}

	if u, ok := slot.(Updater); ok {
		err := u.Update(ctx, flip)
		return on, err
	}

	raw, err := slot.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("read saved jobs: %w", err)
	}
	next, err := flip(raw)
	if err != nil {
		return false, err
	}
	return on, slot.Write(ctx, next)
}

// Save writes the set to slot.
func Save(ctx context.Context, slot Slot, s *Set) error {
	raw, err := json.Marshal(s.IDs())
	if err != nil {
		return err
	}
	return slot.Write(ctx, raw)
}

// Slots hands out the slot of one visitor.
type Slots interface {
	For(visitorID string) Slot
}
