package console_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnotify/internal/auth"
	"jobnotify/internal/catalog"
	"jobnotify/internal/console"
	"jobnotify/internal/gate"
	"jobnotify/internal/listing"
	"jobnotify/internal/saved"
	"jobnotify/internal/store"
)

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

var errNoAnswer = errors.New("no scripted answer")

// scriptUI answers prompts from a queue and records what was drawn.
type scriptUI struct {
	answers []any
	tables  [][][]string
	infos   []string
	errors  []string
}

func (s *scriptUI) next() (any, error) {
	if len(s.answers) == 0 {
		return nil, errNoAnswer
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scriptUI) Clear()                               {}
func (s *scriptUI) Header(string)                        {}
func (s *scriptUI) Section(string)                       {}
func (s *scriptUI) Table(rows [][]string)                { s.tables = append(s.tables, rows) }
func (s *scriptUI) Info(msg string)                      { s.infos = append(s.infos, msg) }
func (s *scriptUI) Success(string)                       {}
func (s *scriptUI) Error(msg string)                     { s.errors = append(s.errors, msg) }
func (s *scriptUI) Spin(_ string, fn func() error) error { return fn() }

func (s *scriptUI) Text(string, string) (string, error) {
	a, err := s.next()
	if err != nil {
		return "", err
	}
	return a.(string), nil
}

func (s *scriptUI) Password(label string) (string, error) { return s.Text(label, "") }

func (s *scriptUI) Select(label string, _ []string, def string) (string, error) {
	return s.Text(label, def)
}

func (s *scriptUI) MultiSelect(string, []string, []string) ([]string, error) {
	a, err := s.next()
	if err != nil {
		return nil, err
	}
	return a.([]string), nil
}

func (s *scriptUI) Confirm(string) (bool, error) {
	a, err := s.next()
	if err != nil {
		return false, err
	}
	return a.(bool), nil
}

func (s *scriptUI) lastTable() [][]string {
	if len(s.tables) == 0 {
		return nil
	}
	return s.tables[len(s.tables)-1]
}

// scriptKeys returns queued keys, then Ctrl+C.
type scriptKeys []string

func (k *scriptKeys) ReadKey() (string, error) {
	if len(*k) == 0 {
		return console.KeyQuit, nil
	}
	key := (*k)[0]
	*k = (*k)[1:]
	return key, nil
}

type fixture struct {
	catalog *catalog.Catalog
	gate    *gate.Gate
	slot    *saved.MemorySlot
	ui      *scriptUI
}

var jobs = []listing.Job{
	{ID: "j1", PostDate: "2024-06-10", LastDate: "2024-06-12", Board: "BoardX", PositionName: "Clerk", Location: "Delhi"},
	{ID: "j2", PostDate: "2024-05-01", LastDate: "2024-07-30", Board: "BoardY", PositionName: "Driver", Location: "Pune"},
}

func label(j listing.Job) string {
	return fmt.Sprintf("%s | %s | %s [%s]", j.PositionName, j.Board, j.Location, j.ID)
}

func run(t *testing.T, keys []string, answers ...any) *fixture {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	client := auth.NewClient(auth.NewLocal("admin@example.com", hash, time.Hour))
	return runWith(t, client, keys, answers...)
}

func runWith(t *testing.T, client *auth.Client, keys []string, answers ...any) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	require.NoError(t, st.InsertJobs(ctx, jobs))
	require.NoError(t, st.UpsertMasterConfig(ctx, store.MasterConfig{MasterData: listing.MasterData{
		Boards:        []string{"BoardX", "BoardY"},
		Locations:     []string{"Delhi", "Pune"},
		Eligibilities: []string{"10th Pass", "12th Pass"},
	}}))
	c := catalog.New(st, catalog.Options{Policy: catalog.PolicyConfirmed, Now: func() time.Time { return now }})
	require.NoError(t, c.Load(ctx))

	g := gate.New(nil).WithClock(func() time.Time { return now })
	slot := &saved.MemorySlot{}
	ui := &scriptUI{answers: answers}
	k := scriptKeys(keys)

	con := console.New(c, client, g, slot, ui, &k).WithClock(func() time.Time { return now })
	require.NoError(t, con.Run(ctx))
	return &fixture{catalog: c, gate: g, slot: slot, ui: ui}
}

func savedIDs(t *testing.T, slot *saved.MemorySlot) []string {
	t.Helper()
	raw, err := slot.Read(context.Background())
	require.NoError(t, err)
	var ids []string
	require.NoError(t, json.Unmarshal(raw, &ids))
	return ids
}

// ─── Visitor ─────────────────────────────────────────────────────────────────

func TestListing_RendersStatusAndStats(t *testing.T) {
	f := run(t, []string{"q"})

	rows := f.ui.lastTable()
	require.Len(t, rows, 3, "header plus two jobs")
	assert.Equal(t, "Clerk", rows[1][3])
	assert.Equal(t, "NEW · Closing in 1 day(s)", rows[1][7])
	assert.Equal(t, "10-06-2024", rows[1][1])
	assert.Contains(t, f.ui.infos, "Showing 2 of 2 jobs")
	assert.Contains(t, f.ui.infos, "2 jobs · 1 new · 1 closing soon · 0 saved · top locations: Delhi, Pune")
}

func TestListing_FilterAndReset(t *testing.T) {
	f := run(t, []string{"b", "q"}, "BoardY")
	rows := f.ui.lastTable()
	require.Len(t, rows, 2)
	assert.Equal(t, "Driver", rows[1][3])

	f = run(t, []string{"/", "q"}, "plumber")
	assert.Contains(t, f.ui.infos, "No jobs match your search.")
	assert.Contains(t, f.ui.infos, "Showing 0 of 2 jobs")

	f = run(t, []string{"b", "r", "q"}, "BoardY")
	assert.Len(t, f.ui.lastTable(), 3)
}

func TestListing_SaveToggle(t *testing.T) {
	f := run(t, []string{"s", "s", "s", "q"}, label(jobs[1]), label(jobs[0]), label(jobs[1]))

	assert.Equal(t, []string{"j1"}, savedIDs(t, f.slot))
	assert.Equal(t, "★", f.ui.lastTable()[1][0])
	assert.Equal(t, "", f.ui.lastTable()[2][0])
}

// ─── Gesture and sign-in ─────────────────────────────────────────────────────

func secret() []string { return []string{")", "&", "("} }

func TestGesture_SignInOpensAdminConsole(t *testing.T) {
	f := run(t, secret(),
		"admin@example.com", "s3cret",
		"Add job",
		"BoardX", "Delhi", "Typist", []string{"12th Pass"}, "2024-06-10", "2024-06-20", "", "https://example.org/apply", "1,25", " Rs 25,000 ",
		"Quit",
	)

	assert.Equal(t, gate.ModeAdmin, f.gate.Mode())
	snap := f.catalog.Snapshot()
	require.Len(t, snap.Jobs, 3)
	added := snap.Jobs[0]
	assert.Equal(t, "Typist", added.PositionName)
	assert.Equal(t, []string{"12th Pass"}, added.Eligibility)
	assert.Nil(t, added.Vacancies, "unparseable vacancies are dropped")
	require.NotNil(t, added.Salary)
	assert.Equal(t, "Rs 25,000", *added.Salary)
}

func TestGesture_WrongPasswordKeepsPromptOpen(t *testing.T) {
	f := run(t, append(secret(), "q"),
		"admin@example.com", "wrong",
		"", // dismiss
	)

	assert.Equal(t, []string{"Authentication failed: Invalid credentials."}, f.ui.errors)
	assert.Equal(t, gate.ModeUser, f.gate.Mode())
	assert.False(t, f.gate.PromptOpen())
}

func TestGesture_LockoutAfterRepeatedFailures(t *testing.T) {
	answers := []any{}
	for i := 0; i < 5; i++ {
		answers = append(answers, "admin@example.com", "wrong")
	}
	f := run(t, append(secret(), secret()...), answers...)

	assert.Len(t, f.ui.errors, 5)
	st := f.gate.State()
	assert.True(t, st.Locked)
	assert.False(t, st.PromptOpen, "gesture is ignored while locked")
}

// ─── Admin ───────────────────────────────────────────────────────────────────

func login() []any { return []any{"admin@example.com", "s3cret"} }

func TestAdmin_EditAndDelete(t *testing.T) {
	answers := append(login(),
		"Edit job", label(jobs[1]),
		"BoardY", "Pune", "Senior Driver", []string{"10th Pass"}, "2024-05-01", "2024-07-30", "", "", "4", "",
		"Delete job", label(jobs[0]), false,
		"Delete job", label(jobs[0]), true,
		"Sign out",
	)
	f := run(t, secret(), answers...)

	snap := f.catalog.Snapshot()
	require.Len(t, snap.Jobs, 1)
	assert.Equal(t, "Senior Driver", snap.Jobs[0].PositionName)
	require.NotNil(t, snap.Jobs[0].Vacancies)
	assert.Equal(t, 4, *snap.Jobs[0].Vacancies)
	assert.Equal(t, gate.ModeUser, f.gate.Mode(), "sign out returns to the listing")
}

func TestAdmin_ExpiredSessionReturnsToListing(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	clock := now
	tick := func() time.Time { return clock }
	client := auth.NewClient(auth.NewLocal("admin@example.com", hash, time.Hour).WithClock(tick)).WithClock(tick)
	client.Subscribe(func(s *auth.Session) {
		if s != nil {
			clock = clock.Add(2 * time.Hour)
		}
	})

	f := runWith(t, client, secret(), append(login(), "Add job")...)

	assert.Equal(t, gate.ModeUser, f.gate.Mode())
	assert.Equal(t, []string{"Session expired. Sign in again to continue."}, f.ui.errors)
	assert.Equal(t, []any{"Add job"}, f.ui.answers, "no admin action runs")
	assert.Len(t, f.catalog.Snapshot().Jobs, 2)
}

func TestAdmin_SaveJobValidation(t *testing.T) {
	f := run(t, secret(), append(login(),
		"Add job",
		"BoardX", "Delhi", "   ", []string{}, "2024-06-10", "", "", "", "", "",
		"Quit",
	)...)

	assert.Equal(t, []string{"Position name is required"}, f.ui.errors)
	assert.Len(t, f.catalog.Snapshot().Jobs, 2)
}

func TestAdmin_ManageTags(t *testing.T) {
	f := run(t, secret(), append(login(),
		"Manage recruitment boards", "Add", "BoardZ",
		"Manage recruitment boards", "Add", "BoardZ",
		"Manage job locations", "Remove", "Pune",
		"Quit",
	)...)

	md := f.catalog.Snapshot().Master
	assert.Equal(t, []string{"BoardX", "BoardY", "BoardZ"}, md.Boards)
	assert.Equal(t, []string{"Delhi"}, md.Locations)
	require.Len(t, f.ui.errors, 1)
	assert.Contains(t, f.ui.errors[0], catalog.ErrDuplicateTag.Error())
}
