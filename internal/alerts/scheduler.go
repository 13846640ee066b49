package alerts

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"jobnotify/internal/catalog"
)

// Scheduler runs the alert digest and the periodic catalog refresh on cron
// schedules.
type Scheduler struct {
	cron        *cron.Cron
	catalog     *catalog.Catalog
	notifier    *Notifier // nil disables the digest
	alertSpec   string
	refreshSpec string
}

// NewScheduler returns a Scheduler. Empty specs disable the matching job.
func NewScheduler(c *catalog.Catalog, n *Notifier, alertSpec, refreshSpec string) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLogger(cron.DefaultLogger)),
		catalog:     c,
		notifier:    n,
		alertSpec:   alertSpec,
		refreshSpec: refreshSpec,
	}
}

// Start registers the jobs and starts the scheduler. The digest also runs
// once immediately so fresh jobs are not held back until the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.refreshSpec != "" {
		if _, err := s.cron.AddFunc(s.refreshSpec, func() { s.runRefresh(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc refresh: %w", err)
		}
	}
	if s.notifier != nil && s.alertSpec != "" {
		if _, err := s.cron.AddFunc(s.alertSpec, func() { s.runDigest(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc alerts: %w", err)
		}
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — alerts: %q, refresh: %q", s.alertSpec, s.refreshSpec)

	if s.notifier != nil && s.alertSpec != "" {
		go s.runDigest(ctx)
	}
	return nil
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	if err := s.catalog.Reload(ctx); err != nil {
		log.Printf("[scheduler] Catalog refresh error: %v", err)
	}
}

func (s *Scheduler) runDigest(ctx context.Context) {
	log.Println("[scheduler] Alert digest started")

	snap := s.catalog.Snapshot()
	sent, err := s.notifier.Announce(ctx, snap.Jobs)
	if err != nil {
		log.Printf("[scheduler] Alert digest error after %d item(s): %v", sent, err)
		return
	}
	log.Printf("[scheduler] Alert digest complete — %d item(s) sent", sent)
}
