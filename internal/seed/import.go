package seed

import (
	"context"
	"errors"
	"fmt"

	"jobnotify/internal/catalog"
	"jobnotify/internal/listing"
	"jobnotify/internal/store"
)

// Result counts what Import changed.
type Result struct {
	Created   int
	Updated   int
	TagsAdded int
}

// IsFresh reports whether st has never been seeded: no jobs and no seed
// marker on the configuration row.
func IsFresh(ctx context.Context, st store.Store) (bool, error) {
	jobs, err := st.ListJobs(ctx)
	if err != nil {
		return false, fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) > 0 {
		return false, nil
	}
	cfg, err := st.GetMasterConfig(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get master config: %w", err)
	}
	return cfg.SeededAt == nil, nil
}

// Import upserts the seed's jobs through cat and adds its missing tags.
//
// A job without an id that matches an existing job on board, position name
// and post date takes that job's id. progress, when set, runs after each job.
func Import(ctx context.Context, cat *catalog.Catalog, s catalog.Seed, progress func()) (Result, error) {
	var res Result

	existing := make(map[string]string)
	known := make(map[string]bool)
	for _, j := range cat.Snapshot().Jobs {
		existing[matchKey(j)] = j.ID
		known[j.ID] = true
	}

	for _, j := range s.Jobs {
		if j.ID == "" {
			j.ID = existing[matchKey(j)]
		}
		isUpdate := known[j.ID]

		stored, err := cat.SaveJob(ctx, j)
		if err != nil {
			return res, fmt.Errorf("save %q: %w", j.PositionName, err)
		}
		if isUpdate {
			res.Updated++
		} else {
			res.Created++
			existing[matchKey(stored)] = stored.ID
			known[stored.ID] = true
		}
		if progress != nil {
			progress()
		}
	}

	for _, category := range listing.Categories {
		for _, tag := range s.Master.Tags(category) {
			err := cat.AddTag(ctx, category, tag)
			switch {
			case err == nil:
				res.TagsAdded++
			case errors.Is(err, catalog.ErrDuplicateTag), errors.Is(err, catalog.ErrEmptyTag):
			default:
				return res, fmt.Errorf("add %s tag %q: %w", category, tag, err)
			}
		}
	}
	return res, nil
}

func matchKey(j listing.Job) string {
	return j.Board + "\x00" + j.PositionName + "\x00" + j.PostDate
}
