package saved

import (
	"context"
	"sync"
)

// MemorySlot is an in-process Slot.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemorySlot) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *MemorySlot) Update(_ context.Context, fn func([]byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur []byte
	if m.data != nil {
		cur = append([]byte(nil), m.data...)
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	m.data = append([]byte(nil), next...)
	return nil
}

// MemorySlots keeps one MemorySlot per visitor.
type MemorySlots struct {
	mu    sync.Mutex
	slots map[string]*MemorySlot
}

func (m *MemorySlots) For(visitorID string) Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots == nil {
		m.slots = make(map[string]*MemorySlot)
	}
	s, ok := m.slots[visitorID]
	if !ok {
		s = &MemorySlot{}
		m.slots[visitorID] = s
	}
	return s
}
