// jobnotify-console: terminal client for the job notification portal
//
// Browse and filter the listing, keep saved jobs in a local file, and type
// the secret key sequence to sign in to the admin console. Changes are
// published to Redis so running servers reload.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"jobnotify/internal/auth"
	"jobnotify/internal/bootstrap"
	"jobnotify/internal/config"
	"jobnotify/internal/console"
	"jobnotify/internal/events"
	"jobnotify/internal/gate"
	"jobnotify/internal/saved"
)

const component = "jobnotify-console"

func main() {
	if err := run(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireAuth(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := bootstrap.OpenStore(ctx, cfg, component)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, err := bootstrap.OpenRedis(ctx, cfg, component)
	if err != nil {
		return err
	}

	provider, err := bootstrap.Provider(cfg)
	if err != nil {
		return err
	}

	cat, err := bootstrap.Catalog(st, cfg)
	if err != nil {
		return err
	}
	if err := cat.Load(ctx); err != nil {
		pterm.Warning.Printfln("Could not load jobs: %v", err)
	}
	defer cat.Wait()

	if rdb != nil {
		defer rdb.Close()
		source := events.NewSource(component)
		defer events.NewPublisher(rdb, source).Attach(ctx, cat)()
		go func() {
			if err := events.Listen(ctx, rdb, source, events.Reloader(ctx, cat)); err != nil {
				log.Printf("[%s] Event listener stopped: %v", component, err)
			}
		}()
	}

	slotPath := cfg.SavedJobsPath
	if slotPath == "" {
		if slotPath, err = saved.DefaultFilePath(); err != nil {
			return err
		}
	}

	g := gate.New(gate.NewSequenceMatcher(cfg.SecretSequence, 0))
	c := console.New(cat, auth.NewClient(provider), g, saved.FileSlot{Path: slotPath}, nil, nil)
	return c.Run(ctx)
}
