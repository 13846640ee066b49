package store

import (
	"context"
	"sort"
	"sync"

	"jobnotify/internal/listing"
)

// Memory is an in-process Store. The zero value is not usable; call NewMemory.
type Memory struct {
	mu     sync.Mutex
	jobs   []listing.Job // most recently created first
	master *MasterConfig
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ListJobs(_ context.Context) ([]listing.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := listing.CloneJobs(m.jobs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PostDate > out[j].PostDate
	})
	return out, nil
}

func (m *Memory) InsertJobs(_ context.Context, jobs []listing.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range jobs {
		if m.indexOf(job.ID) >= 0 {
			return &DuplicateKeyError{ID: job.ID}
		}
	}
	for _, job := range jobs {
		m.jobs = append([]listing.Job{job.Clone()}, m.jobs...)
	}
	return nil
}

func (m *Memory) UpsertJob(_ context.Context, job listing.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(job.ID); i >= 0 {
		m.jobs[i] = job.Clone()
		return nil
	}
	m.jobs = append([]listing.Job{job.Clone()}, m.jobs...)
	return nil
}

func (m *Memory) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(id); i >= 0 {
		m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
	}
	return nil
}

func (m *Memory) GetMasterConfig(_ context.Context) (*MasterConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.master == nil {
		return nil, ErrNotFound
	}
	cfg := MasterConfig{MasterData: m.master.MasterData.Clone()}
	if m.master.SeededAt != nil {
		t := *m.master.SeededAt
		cfg.SeededAt = &t
	}
	return &cfg, nil
}

func (m *Memory) UpsertMasterConfig(_ context.Context, cfg MasterConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := MasterConfig{MasterData: cfg.MasterData.Clone()}
	switch {
	case cfg.SeededAt != nil:
		t := *cfg.SeededAt
		next.SeededAt = &t
	case m.master != nil:
		next.SeededAt = m.master.SeededAt
	}
	m.master = &next
	return nil
}

func (m *Memory) indexOf(id string) int {
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			return i
		}
	}
	return -1
}
