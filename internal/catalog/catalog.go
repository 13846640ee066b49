// Package catalog owns the in-memory copy of jobs and MasterData.
//
// Every mutation enters through one method per entity. Readers get copies via
// Snapshot or a Subscribe callback and never touch the shared slices.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobnotify/internal/listing"
	"jobnotify/internal/store"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// ChangeKind tells subscribers what happened.
type ChangeKind string

const (
	ChangeLoaded     ChangeKind = "loaded"
	ChangeJobSaved   ChangeKind = "job_saved"
	ChangeJobDeleted ChangeKind = "job_deleted"
	ChangeMasterData ChangeKind = "master_data"
)

// Change is delivered to subscribers after the state has been updated.
type Change struct {
	Kind     ChangeKind
	JobID    string
	Snapshot Snapshot
}

// Snapshot is a read-only copy of the catalog state.
type Snapshot struct {
	Jobs   []listing.Job
	Master listing.MasterData
	Loaded bool
}

// Seed is written to an empty store on first load.
type Seed struct {
	Jobs   []listing.Job
	Master listing.MasterData
}

// Options configures a Catalog. Zero values pick the defaults.
type Options struct {
	Policy TagPolicy
	Seed   Seed
	Now    func() time.Time
	NewID  func(time.Time) string
}

// Catalog is the single owned state container for jobs and MasterData.
type Catalog struct {
	st     store.Store
	policy TagPolicy
	seed   Seed
	now    func() time.Time
	newID  func(time.Time) string

	mu       sync.RWMutex
	jobs     []listing.Job
	master   listing.MasterData
	loaded   bool
	inFlight map[string]struct{}
	// gen advances on every local mutation and finished MasterData sync.
	// A load only applies what it fetched when gen is unchanged.
	gen     uint64
	pending int

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int

	// syncMu serialises MasterData writes so the store ends on the latest value.
	syncMu sync.Mutex
	wg     sync.WaitGroup
}

// New returns an empty Catalog backed by st. Call Load before serving reads.
func New(st store.Store, opts Options) *Catalog {
	c := &Catalog{
		st:       st,
		policy:   opts.Policy,
		seed:     opts.Seed,
		now:      opts.Now,
		newID:    opts.NewID,
		jobs:     []listing.Job{},
		master:   listing.MasterData{}.Clone(),
		inFlight: make(map[string]struct{}),
		subs:     make(map[int]func(Change)),
	}
	if c.policy == "" {
		c.policy = PolicyOptimistic
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = listing.NewJobID
	}
	return c
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Snapshot returns a deep copy of the current state.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Job returns a copy of the job with id.
func (c *Catalog) Job(id string) (listing.Job, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.jobs, id); i >= 0 {
		return c.jobs[i].Clone(), true
	}
	return listing.Job{}, false
}

// Policy reports the configured tag sync policy.
func (c *Catalog) Policy() TagPolicy { return c.policy }

// Subscribe registers fn for every subsequent change. fn runs on the
// goroutine that made the change and must not call back into mutations.
func (c *Catalog) Subscribe(fn func(Change)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// ─── Load ────────────────────────────────────────────────────────────────────

// Load reads jobs and MasterData from the store. When the store holds no jobs
// and has never been seeded, the seed is written once and shown.
//
// A read failure is logged, the catalog falls back to an empty state and the
// error is returned.
func (c *Catalog) Load(ctx context.Context) error {
	return c.load(ctx, true)
}

// Reload re-reads the store without seeding. On failure the current state is
// kept.
//
// A mutation that completes while the store is being read makes the fetched
// state stale; the read is then repeated, up to maxLoadAttempts times, after
// which ErrReloadRaced is returned and the local state is left as is.
func (c *Catalog) Reload(ctx context.Context) error {
	return c.load(ctx, false)
}

const maxLoadAttempts = 3

func (c *Catalog) load(ctx context.Context, seed bool) error {
	for attempt := 1; ; attempt++ {
		gen := c.generation()

		jobs, cfg, err := c.fetch(ctx)
		if err != nil {
			slog.Error("catalog fetch failed", "err", err)
			if seed {
				c.replace([]listing.Job{}, listing.MasterData{}.Clone(), gen)
			}
			return err
		}

		master := c.seed.Master.Clone()
		if cfg != nil {
			master = cfg.MasterData.Clone()
		}

		var seedErr error
		if seed && len(jobs) == 0 && (cfg == nil || cfg.SeededAt == nil) {
			if cfg != nil {
				master = master.Merge(c.seed.Master)
			}
			jobs, seedErr = c.writeSeed(ctx, master)
		}

		if c.replace(jobs, master, gen) {
			return seedErr
		}
		if attempt == maxLoadAttempts {
			slog.Warn("catalog reload kept local state", "attempts", attempt)
			return ErrReloadRaced
		}
		slog.Debug("catalog changed during load, fetching again", "attempt", attempt)
	}
}

func (c *Catalog) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *Catalog) fetch(ctx context.Context) ([]listing.Job, *store.MasterConfig, error) {
	var (
		jobs []listing.Job
		cfg  *store.MasterConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jobs, err = c.st.ListJobs(gctx)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cfg, err = c.st.GetMasterConfig(gctx)
		if errors.Is(err, store.ErrNotFound) {
			cfg, err = nil, nil
		}
		if err != nil {
			return fmt.Errorf("get master config: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return jobs, cfg, nil
}

// writeSeed inserts the seed jobs and marks the config row as seeded. The
// seed is returned for display even when the write fails, in which case the
// next Load tries again.
func (c *Catalog) writeSeed(ctx context.Context, master listing.MasterData) ([]listing.Job, error) {
	now := c.now()
	jobs := listing.CloneJobs(c.seed.Jobs)
	for i := range jobs {
		if jobs[i].ID == "" {
			jobs[i].ID = c.newID(now)
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].PostDate > jobs[j].PostDate
	})

	if err := c.st.InsertJobs(ctx, jobs); err != nil {
		slog.Error("seed jobs write failed", "err", err)
		return jobs, fmt.Errorf("seed jobs: %w", err)
	}
	seededAt := now.UTC()
	if err := c.st.UpsertMasterConfig(ctx, store.MasterConfig{MasterData: master, SeededAt: &seededAt}); err != nil {
		slog.Error("seed master config write failed", "err", err)
		return jobs, fmt.Errorf("seed master config: %w", err)
	}
	slog.Info("catalog seeded", "jobs", len(jobs))
	return jobs, nil
}

// replace installs fetched state unless a mutation has landed since gen was
// read. MasterData with an unsynced optimistic edit is kept; the pending sync
// writes it.
func (c *Catalog) replace(jobs []listing.Job, master listing.MasterData, gen uint64) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.jobs = listing.CloneJobs(jobs)
	if c.pending == 0 {
		c.master = master.Clone()
	}
	c.loaded = true
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeLoaded, Snapshot: snap})
	return true
}

// ─── Job mutations ───────────────────────────────────────────────────────────

// SaveJob validates job, assigns an ID when it has none, and upserts it. Only
// after the store confirms is the local list updated: an existing entry is
// replaced in place, a new one is prepended. On failure nothing changes
// locally and the store error is returned.
func (c *Catalog) SaveJob(ctx context.Context, job listing.Job) (listing.Job, error) {
	if err := listing.Validate(job); err != nil {
		return listing.Job{}, err
	}
	job = job.Clone()
	if job.ID == "" {
		job.ID = c.newID(c.now())
	}

	release, err := c.claim(job.ID)
	if err != nil {
		return listing.Job{}, err
	}
	defer release()

	if err := c.st.UpsertJob(ctx, job); err != nil {
		return listing.Job{}, fmt.Errorf("save job %s: %w", job.ID, err)
	}

	c.mu.Lock()
	if i := indexOf(c.jobs, job.ID); i >= 0 {
		c.jobs[i] = job.Clone()
	} else {
		c.jobs = append([]listing.Job{job.Clone()}, c.jobs...)
	}
	c.gen++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeJobSaved, JobID: job.ID, Snapshot: snap})
	return job, nil
}

// DeleteJob removes id from the store and, on success, from the local list.
// The store is called even when id is not held locally.
func (c *Catalog) DeleteJob(ctx context.Context, id string) error {
	release, err := c.claim(id)
	if err != nil {
		return err
	}
	defer release()

	if err := c.st.DeleteJob(ctx, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}

	c.mu.Lock()
	if i := indexOf(c.jobs, id); i >= 0 {
		c.jobs = append(c.jobs[:i:i], c.jobs[i+1:]...)
	}
	c.gen++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeJobDeleted, JobID: id, Snapshot: snap})
	return nil
}

// claim marks id as in flight. The returned func releases it.
func (c *Catalog) claim(id string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[id]; busy {
		return nil, ErrBusy
	}
	c.inFlight[id] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inFlight, id)
		c.mu.Unlock()
	}, nil
}

// ─── MasterData mutations ────────────────────────────────────────────────────

// AddTag appends value to category. The value is trimmed; an empty value or an
// exact duplicate is rejected and the set stays unchanged.
func (c *Catalog) AddTag(ctx context.Context, category listing.Category, value string) error {
	value = strings.TrimSpace(value)
	if err := checkCategory(category); err != nil {
		return err
	}
	if value == "" {
		return ErrEmptyTag
	}
	return c.mutateTags(ctx, func(md listing.MasterData) (listing.MasterData, bool, error) {
		if md.Contains(category, value) {
			return md, false, fmt.Errorf("%w: %q in %s", ErrDuplicateTag, value, category)
		}
		tags := append(append([]string{}, md.Tags(category)...), value)
		return md.WithTags(category, tags), true, nil
	})
}

// RemoveTag drops value from category. Removing an absent value is a no-op.
func (c *Catalog) RemoveTag(ctx context.Context, category listing.Category, value string) error {
	value = strings.TrimSpace(value)
	if err := checkCategory(category); err != nil {
		return err
	}
	return c.mutateTags(ctx, func(md listing.MasterData) (listing.MasterData, bool, error) {
		if !md.Contains(category, value) {
			return md, false, nil
		}
		tags := make([]string, 0, len(md.Tags(category)))
		for _, t := range md.Tags(category) {
			if t != value {
				tags = append(tags, t)
			}
		}
		return md.WithTags(category, tags), true, nil
	})
}

type tagEdit func(listing.MasterData) (next listing.MasterData, changed bool, err error)

func (c *Catalog) mutateTags(ctx context.Context, edit tagEdit) error {
	if c.policy == PolicyConfirmed {
		return c.mutateTagsConfirmed(ctx, edit)
	}

	c.mu.Lock()
	next, changed, err := edit(c.master)
	if err != nil || !changed {
		c.mu.Unlock()
		return err
	}
	c.master = next
	c.gen++
	c.pending++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeMasterData, Snapshot: snap})

	c.wg.Add(1)
	go c.syncMaster(context.WithoutCancel(ctx))
	return nil
}

func (c *Catalog) mutateTagsConfirmed(ctx context.Context, edit tagEdit) error {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.RLock()
	next, changed, err := edit(c.master)
	c.mu.RUnlock()
	if err != nil || !changed {
		return err
	}

	if err := c.st.UpsertMasterConfig(ctx, store.MasterConfig{MasterData: next}); err != nil {
		return fmt.Errorf("sync master data: %w", err)
	}

	c.mu.Lock()
	c.master = next
	c.gen++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeMasterData, Snapshot: snap})
	return nil
}

// syncMaster writes whatever MasterData is current when it acquires syncMu.
func (c *Catalog) syncMaster(ctx context.Context) {
	defer c.wg.Done()

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.RLock()
	md := c.master.Clone()
	c.mu.RUnlock()

	if err := c.st.UpsertMasterConfig(ctx, store.MasterConfig{MasterData: md}); err != nil {
		slog.Error("master data sync failed", "err", err)
	}

	c.mu.Lock()
	c.pending--
	c.gen++
	c.mu.Unlock()
}

// Wait blocks until background MasterData syncs have finished.
func (c *Catalog) Wait() {
	c.wg.Wait()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (c *Catalog) snapshotLocked() Snapshot {
	return Snapshot{
		Jobs:   listing.CloneJobs(c.jobs),
		Master: c.master.Clone(),
		Loaded: c.loaded,
	}
}

func (c *Catalog) notify(ch Change) {
	c.subMu.Lock()
	fns := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

func checkCategory(category listing.Category) error {
	for _, c := range listing.Categories {
		if c == category {
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownCategory, category)
}

func indexOf(jobs []listing.Job, id string) int {
	for i := range jobs {
		if jobs[i].ID == id {
			return i
		}
	}
	return -1
}
