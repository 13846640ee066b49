// jobnotify-seed: seed and import CLI
//
// Reads a YAML seed file, validates every job against the job schema and
// writes it through the catalog:
//   - empty store: the file becomes the write-once initial seed
//   - otherwise: jobs are upserted and missing tags are added
//
// A job without an id that matches an existing job on board, position name
// and post date updates that job instead of creating a duplicate.
//
// Usage:
//
//	jobnotify-seed [-file configs/seed.yaml] [-dry-run]
//	jobnotify-seed -hash-password
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/cheggaaa/pb/v3"
	"github.com/pterm/pterm"

	"jobnotify/internal/auth"
	"jobnotify/internal/bootstrap"
	"jobnotify/internal/catalog"
	"jobnotify/internal/config"
	"jobnotify/internal/events"
	"jobnotify/internal/listing"
	"jobnotify/internal/seed"
)

const component = "jobnotify-seed"

func main() {
	file := flag.String("file", "", "seed file (defaults to SEED_PATH)")
	dryRun := flag.Bool("dry-run", false, "validate and preview without writing")
	hashPassword := flag.Bool("hash-password", false, "print a bcrypt hash for ADMIN_PASSWORD_HASH")
	flag.Parse()

	var err error
	if *hashPassword {
		err = printHash()
	} else {
		err = run(*file, *dryRun)
	}
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func printHash() error {
	pw, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Admin password")
	if err != nil {
		return err
	}
	if pw == "" {
		return errors.New("password is empty")
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func run(path string, dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if path == "" {
		path = cfg.SeedPath
	}
	if path == "" {
		return errors.New("no seed file: pass -file or set SEED_PATH")
	}

	s, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s is valid — %d job(s)", path, len(s.Jobs))
	preview(s)
	if dryRun {
		return nil
	}

	ctx := context.Background()
	st, closeStore, err := bootstrap.OpenStore(ctx, cfg, component)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, err := bootstrap.OpenRedis(ctx, cfg, component)
	if err != nil {
		return err
	}

	fresh, err := seed.IsFresh(ctx, st)
	if err != nil {
		return err
	}

	cat := catalog.New(st, catalog.Options{Policy: catalog.PolicyConfirmed, Seed: s})
	if err := cat.Load(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		defer events.NewPublisher(rdb, events.NewSource(component)).Attach(ctx, cat)()
	}

	if fresh {
		pterm.Success.Printfln("Store was empty — wrote %d job(s) as the initial seed", len(s.Jobs))
		return nil
	}

	bar := pb.StartNew(len(s.Jobs))
	res, err := seed.Import(ctx, cat, s, func() { bar.Increment() })
	bar.Finish()
	if err != nil {
		return err
	}

	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Created", "Updated", "Tags added"},
		{strconv.Itoa(res.Created), strconv.Itoa(res.Updated), strconv.Itoa(res.TagsAdded)},
	}).Render()
}

func preview(s catalog.Seed) {
	rows := pterm.TableData{{"Board", "Position", "Location", "Post Date", "Last Date"}}
	for _, j := range s.Jobs {
		rows = append(rows, []string{j.Board, j.PositionName, j.Location,
			listing.DisplayDate(j.PostDate), listing.DisplayDate(j.LastDate)})
	}
	if len(rows) > 1 {
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
}
