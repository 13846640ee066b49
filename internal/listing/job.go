// Package listing holds the job-notification domain model and the pure functions
// that drive the public listing: filtering, derived status and quick stats.
//
// Nothing in this package performs I/O. Every function that depends on the
// current moment takes it as an argument.
package listing

import (
	"fmt"
	"slices"
	"strings"
)

// Job is a single recruitment notification.
//
// Board, Location and Eligibility are expected to hold MasterData values, but
// that is a convention only and is never checked.
type Job struct {
	ID           string   `json:"id"`
	PostDate     string   `json:"postDate"`
	Board        string   `json:"board"`
	PositionName string   `json:"positionName"`
	Eligibility  []string `json:"eligibility"`
	Location     string   `json:"location"`
	PDFURL       string   `json:"pdfUrl"`
	LastDate     string   `json:"lastDate"`
	ApplyURL     string   `json:"applyUrl"`
	Vacancies    *int     `json:"vacancies,omitempty"`
	Salary       *string  `json:"salary,omitempty"`
}

// Clone returns a deep copy so callers can hand jobs out without sharing slices
// or optional fields.
func (j Job) Clone() Job {
	out := j
	if j.Eligibility != nil {
		out.Eligibility = append([]string(nil), j.Eligibility...)
	}
	if j.Vacancies != nil {
		v := *j.Vacancies
		out.Vacancies = &v
	}
	if j.Salary != nil {
		s := *j.Salary
		out.Salary = &s
	}
	return out
}

// HasEligibility reports whether tag is one of the job's eligibility tags
// (exact match).
func (j Job) HasEligibility(tag string) bool {
	for _, e := range j.Eligibility {
		if e == tag {
			return true
		}
	}
	return false
}

// CloneJobs deep-copies a job list.
func CloneJobs(jobs []Job) []Job {
	out := make([]Job, len(jobs))
	for i := range jobs {
		out[i] = jobs[i].Clone()
	}
	return out
}

// ─── MasterData ──────────────────────────────────────────────────────────────

// Category names one of the three MasterData vocabularies.
type Category string

const (
	CategoryBoards        Category = "boards"
	CategoryLocations     Category = "locations"
	CategoryEligibilities Category = "eligibilities"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryBoards, CategoryLocations, CategoryEligibilities}

// ParseCategory converts a raw string to a Category, returning an error for
// unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryBoards, CategoryLocations, CategoryEligibilities:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// MasterData holds the three controlled vocabularies used for filters and forms.
type MasterData struct {
	Boards        []string `json:"boards"`
	Locations     []string `json:"locations"`
	Eligibilities []string `json:"eligibilities"`
}

// Tags returns the values of one category. The slice is shared with m.
func (m MasterData) Tags(c Category) []string {
	switch c {
	case CategoryBoards:
		return m.Boards
	case CategoryLocations:
		return m.Locations
	case CategoryEligibilities:
		return m.Eligibilities
	}
	return nil
}

// WithTags returns a copy of m with category c replaced by tags.
func (m MasterData) WithTags(c Category, tags []string) MasterData {
	out := m.Clone()
	switch c {
	case CategoryBoards:
		out.Boards = tags
	case CategoryLocations:
		out.Locations = tags
	case CategoryEligibilities:
		out.Eligibilities = tags
	}
	return out
}

// Contains reports whether value is already present in category c.
func (m MasterData) Contains(c Category, value string) bool {
	for _, t := range m.Tags(c) {
		if t == value {
			return true
		}
	}
	return false
}

// Merge returns a copy of m with the values of other appended to each
// category, skipping values m already holds.
func (m MasterData) Merge(other MasterData) MasterData {
	out := m.Clone()
	for _, c := range Categories {
		tags := append([]string{}, out.Tags(c)...)
		for _, v := range other.Tags(c) {
			if !slices.Contains(tags, v) {
				tags = append(tags, v)
			}
		}
		out = out.WithTags(c, tags)
	}
	return out
}

// Clone returns a deep copy of m. Nil categories become empty slices so the
// JSON form is always an array.
func (m MasterData) Clone() MasterData {
	return MasterData{
		Boards:        append([]string{}, m.Boards...),
		Locations:     append([]string{}, m.Locations...),
		Eligibilities: append([]string{}, m.Eligibilities...),
	}
}
