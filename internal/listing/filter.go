package listing

import (
	"strings"

	"golang.org/x/text/cases"
)

// Sentinel selections meaning "no restriction" for each filter field.
const (
	AllBoards        = "All Boards"
	AllLocations     = "All Locations"
	AllEligibilities = "All Degrees"
)

// Selection is the structured part of a listing query.
type Selection struct {
	Board       string `json:"board"`
	Location    string `json:"location"`
	Eligibility string `json:"eligibility"`
}

// DefaultSelection selects everything.
func DefaultSelection() Selection {
	return Selection{Board: AllBoards, Location: AllLocations, Eligibility: AllEligibilities}
}

// Normalize maps empty fields to their sentinel. Transport layers call it on
// absent query parameters; Filter itself treats "" as a literal tag.
func (s Selection) Normalize() Selection {
	if s.Board == "" {
		s.Board = AllBoards
	}
	if s.Location == "" {
		s.Location = AllLocations
	}
	if s.Eligibility == "" {
		s.Eligibility = AllEligibilities
	}
	return s
}

// IsDefault reports whether no structured filter is active.
func (s Selection) IsDefault() bool {
	return s == DefaultSelection()
}

// Matches applies the three structured predicates to job.
func (s Selection) Matches(job Job) bool {
	if s.Board != AllBoards && job.Board != s.Board {
		return false
	}
	if s.Location != AllLocations && job.Location != s.Location {
		return false
	}
	if s.Eligibility != AllEligibilities && !job.HasEligibility(s.Eligibility) {
		return false
	}
	return true
}

// Filter returns the jobs that match both the free-text query and the
// selection, in input order.
//
// The query matches case-insensitively as a substring of the position name,
// board or location; an empty query matches every job. The result never shares
// a backing array with jobs.
func Filter(jobs []Job, query string, sel Selection) []Job {
	fold := cases.Fold()
	q := fold.String(query)

	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if !sel.Matches(job) {
			continue
		}
		if q != "" && !matchesQuery(fold, job, q) {
			continue
		}
		out = append(out, job)
	}
	return out
}

func matchesQuery(fold cases.Caser, job Job, q string) bool {
	return strings.Contains(fold.String(job.PositionName), q) ||
		strings.Contains(fold.String(job.Board), q) ||
		strings.Contains(fold.String(job.Location), q)
}
