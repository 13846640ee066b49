package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"jobnotify/internal/auth"
	"jobnotify/internal/listing"
)

// Admin menu entries.
const (
	actionAdd       = "Add job"
	actionEdit      = "Edit job"
	actionDelete    = "Delete job"
	actionBoards    = "Manage recruitment boards"
	actionLocations = "Manage job locations"
	actionElig      = "Manage eligibility criteria"
	actionRefresh   = "Refresh"
	actionSignOut   = "Sign out"
	actionQuit      = "Quit"
)

var adminActions = []string{
	actionAdd, actionEdit, actionDelete,
	actionBoards, actionLocations, actionElig,
	actionRefresh, actionSignOut, actionQuit,
}

// sessionExpired is shown when the admin session lapses mid-console.
const sessionExpired = "Session expired. Sign in again to continue."

func (c *Console) adminStep(ctx context.Context) error {
	session, ok := c.activeSession(ctx)
	if !ok {
		return nil
	}

	snap := c.catalog.Snapshot()
	c.ui.Clear()
	c.ui.Header("Admin Console")
	c.ui.Info("Signed in as " + session.User.Email)
	c.ui.Info(statsLine(listing.ComputeStats(snap.Jobs, c.now()), c.saved.Len()))
	if len(snap.Jobs) > 0 {
		c.ui.Table(jobRows(snap.Jobs, c.now(), c.saved))
	}

	action, err := c.ui.Select("Action", adminActions, "")
	if err != nil {
		return errQuit
	}
	if action != actionQuit && action != actionSignOut {
		if _, ok := c.activeSession(ctx); !ok {
			return nil
		}
	}

	switch action {
	case actionAdd:
		c.editJob(ctx, listing.Job{PostDate: c.now().UTC().Format(listing.DateLayout)})
	case actionEdit:
		if j, ok := c.pickJob("Edit which job?", snap.Jobs); ok {
			c.editJob(ctx, j)
		}
	case actionDelete:
		c.deleteJob(ctx, snap.Jobs)
	case actionBoards:
		c.manageTags(ctx, listing.CategoryBoards)
	case actionLocations:
		c.manageTags(ctx, listing.CategoryLocations)
	case actionElig:
		c.manageTags(ctx, listing.CategoryEligibilities)
	case actionRefresh:
		c.refresh(ctx)
	case actionSignOut:
		if err := c.gate.SignOut(ctx, c.client); err != nil {
			c.ui.Error(auth.FailureMessage(err))
		}
	case actionQuit:
		return errQuit
	}
	return nil
}

// activeSession returns the live session. A missing or expired one drops the
// console back to the listing.
func (c *Console) activeSession(ctx context.Context) (*auth.Session, bool) {
	session, err := c.client.GetSession(ctx)
	if err != nil || session == nil {
		c.gate.Observe(nil)
		c.ui.Error(sessionExpired)
		return nil, false
	}
	return session, true
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// editJob runs the job form prefilled from j and saves the result.
func (c *Console) editJob(ctx context.Context, j listing.Job) {
	master := c.catalog.Snapshot().Master
	if len(master.Boards) == 0 || len(master.Locations) == 0 {
		c.ui.Error("Add at least one recruitment board and job location first")
		return
	}
	form, err := c.jobForm(j, master)
	if err != nil {
		return
	}

	var stored listing.Job
	err = c.ui.Spin("Saving…", func() error {
		var err error
		stored, err = c.catalog.SaveJob(ctx, form)
		return err
	})
	if err != nil {
		c.ui.Error(err.Error())
		return
	}
	c.ui.Success(fmt.Sprintf("Saved %q (%s)", stored.PositionName, stored.ID))
}

// jobForm asks for every job field. A cancelled prompt abandons the form.
func (c *Console) jobForm(j listing.Job, master listing.MasterData) (listing.Job, error) {
	var err error
	if j.Board, err = c.ui.Select("Recruitment Board", master.Boards, j.Board); err != nil {
		return j, err
	}
	if j.Location, err = c.ui.Select("Job Location", master.Locations, j.Location); err != nil {
		return j, err
	}
	if j.PositionName, err = c.ui.Text("Position name", j.PositionName); err != nil {
		return j, err
	}
	if j.Eligibility, err = c.ui.MultiSelect("Eligibility", master.Eligibilities, j.Eligibility); err != nil {
		return j, err
	}
	if j.PostDate, err = c.ui.Text("Post date (YYYY-MM-DD)", j.PostDate); err != nil {
		return j, err
	}
	if j.LastDate, err = c.ui.Text("Last date (YYYY-MM-DD)", j.LastDate); err != nil {
		return j, err
	}
	if j.PDFURL, err = c.ui.Text("Notification PDF URL", j.PDFURL); err != nil {
		return j, err
	}
	if j.ApplyURL, err = c.ui.Text("Apply URL", j.ApplyURL); err != nil {
		return j, err
	}

	vac := ""
	if j.Vacancies != nil {
		vac = strconv.Itoa(*j.Vacancies)
	}
	if vac, err = c.ui.Text("Vacancies (optional)", vac); err != nil {
		return j, err
	}
	j.Vacancies = nil
	if n, convErr := strconv.Atoi(strings.TrimSpace(vac)); convErr == nil && n >= 0 {
		j.Vacancies = &n
	}

	salary := ""
	if j.Salary != nil {
		salary = *j.Salary
	}
	if salary, err = c.ui.Text("Salary (optional)", salary); err != nil {
		return j, err
	}
	j.Salary = nil
	if s := strings.TrimSpace(salary); s != "" {
		j.Salary = &s
	}
	return j, nil
}

func (c *Console) deleteJob(ctx context.Context, jobs []listing.Job) {
	j, ok := c.pickJob("Delete which job?", jobs)
	if !ok {
		return
	}
	yes, err := c.ui.Confirm(fmt.Sprintf("Delete %q? This cannot be undone.", j.PositionName))
	if err != nil || !yes {
		return
	}
	err = c.ui.Spin("Deleting…", func() error { return c.catalog.DeleteJob(ctx, j.ID) })
	if err != nil {
		c.ui.Error(err.Error())
		return
	}
	c.ui.Success(fmt.Sprintf("Deleted %q", j.PositionName))
}

// ─── MasterData ──────────────────────────────────────────────────────────────

const (
	tagAdd    = "Add"
	tagRemove = "Remove"
	tagBack   = "Back"
)

func (c *Console) manageTags(ctx context.Context, category listing.Category) {
	tags := c.catalog.Snapshot().Master.Tags(category)
	c.ui.Section(fmt.Sprintf("%s (%d)", category, len(tags)))
	if len(tags) > 0 {
		c.ui.Info(strings.Join(tags, ", "))
	}

	choice, err := c.ui.Select("Tags", []string{tagAdd, tagRemove, tagBack}, "")
	if err != nil {
		return
	}
	switch choice {
	case tagAdd:
		v, err := c.ui.Text("New value", "")
		if err != nil {
			return
		}
		if err := c.catalog.AddTag(ctx, category, v); err != nil {
			c.ui.Error(err.Error())
			return
		}
		c.ui.Success(fmt.Sprintf("Added %q", strings.TrimSpace(v)))
	case tagRemove:
		if len(tags) == 0 {
			c.ui.Info("Nothing to remove.")
			return
		}
		v, err := c.ui.Select("Remove which value?", tags, "")
		if err != nil {
			return
		}
		if err := c.catalog.RemoveTag(ctx, category, v); err != nil {
			c.ui.Error(err.Error())
			return
		}
		c.ui.Success(fmt.Sprintf("Removed %q", v))
	}
}
