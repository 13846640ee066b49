// jobnotify: job notification portal server
//
// Serves the public listing and admin API over HTTP, a read-only Catalog
// service over gRPC, and runs the background scheduler:
//   - catalog refresh on REFRESH_SCHEDULE
//   - Telegram digest of new and closing-soon jobs on ALERT_SCHEDULE
//
// Catalog mutations are published to Redis channel jobnotify:catalog; events
// from other processes (console, seed CLI) trigger a reload.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobnotify/internal/alerts"
	"jobnotify/internal/bootstrap"
	"jobnotify/internal/config"
	"jobnotify/internal/events"
	"jobnotify/internal/grpcserver"
	"jobnotify/internal/saved"
	"jobnotify/internal/web"
)

const component = "jobnotify"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[jobnotify] Config error: %v", err)
	}
	if err := cfg.RequireAuth(); err != nil {
		log.Fatalf("[jobnotify] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Storage ─────────────────────────────────────────────────────────────
	st, closeStore, err := bootstrap.OpenStore(ctx, cfg, component)
	if err != nil {
		log.Fatalf("[jobnotify] %v", err)
	}
	defer closeStore()

	rdb, err := bootstrap.OpenRedis(ctx, cfg, component)
	if err != nil {
		log.Fatalf("[jobnotify] %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	provider, err := bootstrap.Provider(cfg)
	if err != nil {
		log.Fatalf("[jobnotify] %v", err)
	}

	// ── Catalog ─────────────────────────────────────────────────────────────
	cat, err := bootstrap.Catalog(st, cfg)
	if err != nil {
		log.Fatalf("[jobnotify] Seed error: %v", err)
	}
	if err := cat.Load(ctx); err != nil {
		log.Printf("[jobnotify] Catalog load error: %v — serving what is available", err)
	}
	snap := cat.Snapshot()
	log.Printf("[jobnotify] Catalog loaded — %d job(s), policy %s", len(snap.Jobs), cat.Policy())

	var slots saved.Slots = &saved.MemorySlots{}
	if rdb != nil {
		slots = saved.NewRedisSlots(rdb)

		source := events.NewSource(component)
		stopPublish := events.NewPublisher(rdb, source).Attach(ctx, cat)
		defer stopPublish()

		go func() {
			if err := events.Listen(ctx, rdb, source, events.Reloader(ctx, cat)); err != nil {
				log.Printf("[jobnotify] Event listener stopped: %v", err)
			}
		}()
	}

	// ── Scheduler ───────────────────────────────────────────────────────────
	var notifier *alerts.Notifier
	if cfg.AlertsEnabled() {
		sender, err := alerts.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("[jobnotify] Telegram: %v", err)
		}
		var ledger alerts.Ledger = &alerts.MemoryLedger{}
		if rdb != nil {
			ledger = alerts.NewRedisLedger(rdb)
		}
		notifier = alerts.NewNotifier(sender, ledger)
	} else {
		log.Println("[jobnotify] Telegram not configured — alerts disabled")
	}

	sched := alerts.NewScheduler(cat, notifier, cfg.AlertSchedule, cfg.RefreshSchedule)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[jobnotify] Scheduler: %v", err)
	}

	// ── gRPC server ─────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[jobnotify] gRPC listen: %v", err)
	}
	gs := grpcserver.New(grpcserver.NewServer(cat))
	go func() {
		log.Printf("[jobnotify] gRPC listening on :%s", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Fatalf("[jobnotify] gRPC server error: %v", err)
		}
	}()

	// ── HTTP server ─────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      web.NewServer(cat, provider, slots).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[jobnotify] v%s listening on :%s", web.Version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[jobnotify] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[jobnotify] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[jobnotify] Shutdown error: %v", err)
	}
	gs.GracefulStop()
	sched.Stop()
	cat.Wait()
	cancel()
	log.Println("[jobnotify] Stopped.")
}
