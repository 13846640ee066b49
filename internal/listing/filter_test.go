package listing_test

import (
	"reflect"
	"testing"

	"jobnotify/internal/listing"
)

func sampleJobs() []listing.Job {
	return []listing.Job{
		{ID: "1", Board: "BoardX", PositionName: "Junior Clerk", Location: "Delhi", Eligibility: []string{"12th Pass"}},
		{ID: "2", Board: "BoardY", PositionName: "Senior CLERK Grade II", Location: "Mumbai", Eligibility: []string{"Graduation"}},
		{ID: "3", Board: "BoardX", PositionName: "Driver", Location: "Delhi", Eligibility: []string{"10th Pass", "Driving Licence"}},
		{ID: "4", Board: "BoardX", PositionName: "Stenographer Clerk", Location: "Chennai", Eligibility: []string{"Graduation", "12th Pass"}},
		{ID: "5", Board: "SSC", PositionName: "Teacher", Location: "Clerkenwell", Eligibility: nil},
	}
}

func ids(jobs []listing.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

// ── Structured selection ──────────────────────────────────────────────────

func TestFilter_DefaultSelectionEmptyQueryReturnsAll(t *testing.T) {
	jobs := sampleJobs()
	got := listing.Filter(jobs, "", listing.DefaultSelection())
	if !reflect.DeepEqual(ids(got), []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("Filter(all) = %v, want every job in input order", ids(got))
	}
}

func TestFilter_EmptyQueryAppliesOnlySelection(t *testing.T) {
	jobs := sampleJobs()
	cases := []struct {
		name string
		sel  listing.Selection
		want []string
	}{
		{"board", listing.Selection{Board: "BoardX", Location: listing.AllLocations, Eligibility: listing.AllEligibilities}, []string{"1", "3", "4"}},
		{"location", listing.Selection{Board: listing.AllBoards, Location: "Delhi", Eligibility: listing.AllEligibilities}, []string{"1", "3"}},
		{"eligibility", listing.Selection{Board: listing.AllBoards, Location: listing.AllLocations, Eligibility: "12th Pass"}, []string{"1", "4"}},
		{"all three", listing.Selection{Board: "BoardX", Location: "Chennai", Eligibility: "Graduation"}, []string{"4"}},
		{"no match", listing.Selection{Board: "BoardY", Location: "Delhi", Eligibility: listing.AllEligibilities}, []string{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ids(listing.Filter(jobs, "", c.sel))
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("Filter(%+v) = %v, want %v", c.sel, got, c.want)
			}
			// Same subsequence as applying the predicates by hand.
			var manual []string
			for _, j := range jobs {
				if c.sel.Matches(j) {
					manual = append(manual, j.ID)
				}
			}
			if len(manual) == 0 {
				manual = []string{}
			}
			if !reflect.DeepEqual(got, manual) {
				t.Errorf("Filter(%+v) = %v, predicate subsequence = %v", c.sel, got, manual)
			}
		})
	}
}

func TestFilter_EligibilityIsExactTagMatch(t *testing.T) {
	jobs := sampleJobs()
	sel := listing.DefaultSelection()
	sel.Eligibility = "12th"
	if got := listing.Filter(jobs, "", sel); len(got) != 0 {
		t.Errorf("partial eligibility tag matched %v", ids(got))
	}
}

// ── Free-text query ───────────────────────────────────────────────────────

func TestFilter_QueryIsCaseInsensitiveSubstring(t *testing.T) {
	jobs := sampleJobs()
	got := ids(listing.Filter(jobs, "cLeRk", listing.DefaultSelection()))
	// Position names 1, 2, 4 and location "Clerkenwell" of 5.
	want := []string{"1", "2", "4", "5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter(cLeRk) = %v, want %v", got, want)
	}
}

func TestFilter_QueryMatchesBoard(t *testing.T) {
	got := ids(listing.Filter(sampleJobs(), "ssc", listing.DefaultSelection()))
	if !reflect.DeepEqual(got, []string{"5"}) {
		t.Errorf("Filter(ssc) = %v, want [5]", got)
	}
}

func TestFilter_SubstringOfPositionAlwaysIncluded(t *testing.T) {
	jobs := sampleJobs()
	for _, j := range jobs {
		name := j.PositionName
		for _, q := range []string{name, name[:3], name[len(name)/2:]} {
			found := false
			for _, got := range listing.Filter(jobs, q, listing.DefaultSelection()) {
				if got.ID == j.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("Filter(%q) does not include job %s (%q)", q, j.ID, name)
			}
		}
	}
}

func TestFilter_BoardAndQueryCombined(t *testing.T) {
	sel := listing.DefaultSelection()
	sel.Board = "BoardX"
	got := ids(listing.Filter(sampleJobs(), "clerk", sel))
	want := []string{"1", "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter(board=BoardX, clerk) = %v, want %v", got, want)
	}
}

// ── Purity ────────────────────────────────────────────────────────────────

func TestFilter_IsIdempotentAndDoesNotAliasInput(t *testing.T) {
	jobs := sampleJobs()
	sel := listing.DefaultSelection()
	first := listing.Filter(jobs, "", sel)
	second := listing.Filter(first, "", sel)
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("Filter is not idempotent: %v then %v", ids(first), ids(second))
	}

	first[0].ID = "mutated"
	if jobs[0].ID != "1" {
		t.Error("Filter result shares its backing array with the input")
	}
}

func TestSelection_Normalize(t *testing.T) {
	got := listing.Selection{Location: "Delhi"}.Normalize()
	want := listing.Selection{Board: listing.AllBoards, Location: "Delhi", Eligibility: listing.AllEligibilities}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
	if !(listing.Selection{}).Normalize().IsDefault() {
		t.Error("empty selection should normalise to the default")
	}
}
