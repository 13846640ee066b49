// Package console is the interactive terminal client.
//
// It reproduces the portal's single view: a filterable listing for visitors
// and, after the secret key sequence and a successful sign-in, the admin
// console. Everything runs on one event loop: read a key or a prompt answer,
// apply it, redraw.
//
// Listing keys:
//
//	/  search      b  board       l  location     e  eligibility
//	r  reset       s  save/unsave v  saved jobs   g  refresh
//	q  quit
package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobnotify/internal/auth"
	"jobnotify/internal/catalog"
	"jobnotify/internal/gate"
	"jobnotify/internal/listing"
	"jobnotify/internal/saved"
)

// errQuit ends the event loop.
var errQuit = errors.New("quit")

// Console holds one operator's view state.
type Console struct {
	catalog *catalog.Catalog
	client  *auth.Client
	gate    *gate.Gate
	slot    saved.Slot
	ui      UI
	keys    KeyReader
	now     func() time.Time

	query string
	sel   listing.Selection
	saved *saved.Set
}

// New assembles a Console. ui and keys default to the pterm terminal and the
// raw keyboard.
func New(c *catalog.Catalog, client *auth.Client, g *gate.Gate, slot saved.Slot, ui UI, keys KeyReader) *Console {
	if ui == nil {
		ui = Terminal{}
	}
	if keys == nil {
		keys = Keyboard{}
	}
	return &Console{
		catalog: c,
		client:  client,
		gate:    g,
		slot:    slot,
		ui:      ui,
		keys:    keys,
		now:     time.Now,
		sel:     listing.DefaultSelection(),
	}
}

// WithClock replaces the time source used for derived status and the key
// sequence timing.
func (c *Console) WithClock(now func() time.Time) *Console {
	c.now = now
	return c
}

// Run drives the event loop until the operator quits or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	detach, err := c.gate.Attach(ctx, c.client)
	defer detach()
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	c.saved = saved.Load(ctx, c.slot)

	for ctx.Err() == nil {
		var err error
		switch st := c.gate.State(); {
		case st.Mode == gate.ModeAdmin:
			err = c.adminStep(ctx)
		case st.PromptOpen:
			err = c.loginStep(ctx)
		default:
			err = c.listingStep(ctx)
		}
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ─── Listing ─────────────────────────────────────────────────────────────────

func (c *Console) drawListing() []listing.Job {
	snap := c.catalog.Snapshot()
	now := c.now()
	jobs := listing.Filter(snap.Jobs, c.query, c.sel)

	c.ui.Clear()
	c.ui.Header("Government Job Notifications")
	c.ui.Info(statsLine(listing.ComputeStats(snap.Jobs, now), c.saved.Len()))
	c.ui.Info(filterLine(c.query, c.sel))
	if len(jobs) == 0 {
		c.ui.Info("No jobs match your search.")
	} else {
		c.ui.Table(jobRows(jobs, now, c.saved))
	}
	c.ui.Info(fmt.Sprintf("Showing %d of %d jobs", len(jobs), len(snap.Jobs)))
	return jobs
}

func (c *Console) listingStep(ctx context.Context) error {
	jobs := c.drawListing()

	key, err := c.keys.ReadKey()
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if c.gate.KeyPress(key, c.now()) {
		return nil
	}

	master := c.catalog.Snapshot().Master
	switch key {
	case "q", KeyQuit:
		return errQuit
	case "/":
		q, err := c.ui.Text("Search position, board or location", c.query)
		if err != nil {
			return nil
		}
		c.query = q
	case "b":
		c.sel.Board = c.choose("Recruitment Board", listing.AllBoards, master.Boards, c.sel.Board)
	case "l":
		c.sel.Location = c.choose("Job Location", listing.AllLocations, master.Locations, c.sel.Location)
	case "e":
		c.sel.Eligibility = c.choose("Qualification", listing.AllEligibilities, master.Eligibilities, c.sel.Eligibility)
	case "r":
		c.query, c.sel = "", listing.DefaultSelection()
	case "s":
		c.toggleSaved(ctx, jobs)
	case "v":
		c.showSaved()
	case "g":
		c.refresh(ctx)
	}
	return nil
}

// choose asks for one tag with the sentinel first. A cancelled prompt keeps
// current.
func (c *Console) choose(label, sentinel string, tags []string, current string) string {
	options := append([]string{sentinel}, tags...)
	v, err := c.ui.Select(label, options, current)
	if err != nil {
		return current
	}
	return v
}

func (c *Console) pickJob(label string, jobs []listing.Job) (listing.Job, bool) {
	if len(jobs) == 0 {
		c.ui.Info("No jobs to choose from.")
		return listing.Job{}, false
	}
	labels := make([]string, len(jobs))
	for i, j := range jobs {
		labels[i] = jobLabel(j)
	}
	v, err := c.ui.Select(label, labels, "")
	if err != nil {
		return listing.Job{}, false
	}
	for i, l := range labels {
		if l == v {
			return jobs[i], true
		}
	}
	return listing.Job{}, false
}

func (c *Console) toggleSaved(ctx context.Context, jobs []listing.Job) {
	j, ok := c.pickJob("Save or unsave", jobs)
	if !ok {
		return
	}
	c.saved.Toggle(j.ID)
	if err := saved.Save(ctx, c.slot, c.saved); err != nil {
		c.ui.Error("Could not store saved jobs: " + err.Error())
	}
}

func (c *Console) showSaved() {
	var jobs []listing.Job
	for _, j := range c.catalog.Snapshot().Jobs {
		if c.saved.Has(j.ID) {
			jobs = append(jobs, j)
		}
	}
	c.ui.Section(fmt.Sprintf("Saved jobs (%d)", len(jobs)))
	if len(jobs) > 0 {
		c.ui.Table(jobRows(jobs, c.now(), c.saved))
	}
}

func (c *Console) refresh(ctx context.Context) {
	err := c.ui.Spin("Refreshing…", func() error { return c.catalog.Reload(ctx) })
	if err != nil {
		c.ui.Error("Refresh failed: " + err.Error())
	}
}

// ─── Login ───────────────────────────────────────────────────────────────────

// loginStep shows the credential prompt once. An empty email dismisses it.
func (c *Console) loginStep(ctx context.Context) error {
	c.ui.Section("Admin sign-in")
	email, err := c.ui.Text("Email (leave empty to cancel)", "")
	if err != nil || email == "" {
		c.gate.ClosePrompt()
		return nil
	}
	password, err := c.ui.Password("Password")
	if err != nil {
		c.gate.ClosePrompt()
		return nil
	}

	err = c.ui.Spin("Signing in…", func() error { return c.client.SignIn(ctx, email, password) })
	if err != nil {
		c.ui.Error(auth.FailureMessage(err))
		c.gate.RecordLoginFailure()
	}
	return nil
}
