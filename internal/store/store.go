// Package store is the durable owner of jobs and MasterData across sessions.
//
// The catalog talks to it through Store. Postgres is the production
// implementation; Memory backs tests and the local console mode.
package store

import (
	"context"
	"errors"
	"time"

	"jobnotify/internal/listing"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// MasterConfig is the single configuration row holding the MasterData
// vocabularies. SeededAt is set once the initial seed has been written.
type MasterConfig struct {
	listing.MasterData
	SeededAt *time.Time
}

// Store is the request/response data-store API.
type Store interface {
	// ListJobs returns every job, newest postDate first.
	ListJobs(ctx context.Context) ([]listing.Job, error)
	// InsertJobs inserts rows in one transaction.
	InsertJobs(ctx context.Context, jobs []listing.Job) error
	// UpsertJob creates or replaces the job keyed by its ID.
	UpsertJob(ctx context.Context, job listing.Job) error
	// DeleteJob removes the job with id. Deleting a missing id is not an error.
	DeleteJob(ctx context.Context, id string) error
	// GetMasterConfig returns the configuration row or ErrNotFound.
	GetMasterConfig(ctx context.Context) (*MasterConfig, error)
	// UpsertMasterConfig writes the configuration row. A nil SeededAt keeps
	// whatever marker is already stored.
	UpsertMasterConfig(ctx context.Context, cfg MasterConfig) error
}
