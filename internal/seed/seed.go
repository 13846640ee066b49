// Package seed reads catalog seed files.
//
// A seed file is YAML:
//
//	master:
//	  boards: [SSC, UPSC]
//	  locations: [Delhi]
//	  eligibilities: [Graduation]
//	jobs:
//	  - board: SSC
//	    positionName: Junior Clerk
//	    location: Delhi
//	    postDate: "2024-06-10"
//
// Every job is checked against the job schema before it is accepted.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"jobnotify/internal/catalog"
	"jobnotify/internal/listing"
)

type file struct {
	Master master `yaml:"master"`
	Jobs   []job  `yaml:"jobs"`
}

type master struct {
	Boards        []string `yaml:"boards"`
	Locations     []string `yaml:"locations"`
	Eligibilities []string `yaml:"eligibilities"`
}

type job struct {
	ID           string   `yaml:"id"`
	PostDate     string   `yaml:"postDate"`
	Board        string   `yaml:"board"`
	PositionName string   `yaml:"positionName"`
	Eligibility  []string `yaml:"eligibility"`
	Location     string   `yaml:"location"`
	PDFURL       string   `yaml:"pdfUrl"`
	LastDate     string   `yaml:"lastDate"`
	ApplyURL     string   `yaml:"applyUrl"`
	Vacancies    *int     `yaml:"vacancies"`
	Salary       *string  `yaml:"salary"`
}

func (j job) toListing() listing.Job {
	out := listing.Job{
		ID:           j.ID,
		PostDate:     j.PostDate,
		Board:        j.Board,
		PositionName: j.PositionName,
		Eligibility:  j.Eligibility,
		Location:     j.Location,
		PDFURL:       j.PDFURL,
		LastDate:     j.LastDate,
		ApplyURL:     j.ApplyURL,
		Vacancies:    j.Vacancies,
		Salary:       j.Salary,
	}
	if out.Eligibility == nil {
		out.Eligibility = []string{}
	}
	return out
}

// LoadFile reads and validates the seed file at path.
func LoadFile(path string) (catalog.Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return catalog.Seed{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return catalog.Seed{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (catalog.Seed, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return catalog.Seed{}, fmt.Errorf("read seed: %w", err)
	}

	var doc file
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return catalog.Seed{}, fmt.Errorf("parse seed: %w", err)
	}

	out := catalog.Seed{
		Master: listing.MasterData{
			Boards:        doc.Master.Boards,
			Locations:     doc.Master.Locations,
			Eligibilities: doc.Master.Eligibilities,
		}.Clone(),
		Jobs: make([]listing.Job, 0, len(doc.Jobs)),
	}
	for i, j := range doc.Jobs {
		lj := j.toListing()
		if err := listing.ValidateDocument(lj); err != nil {
			return catalog.Seed{}, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		if err := listing.Validate(lj); err != nil {
			return catalog.Seed{}, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		out.Jobs = append(out.Jobs, lj)
	}
	return out, nil
}
