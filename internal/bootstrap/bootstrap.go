// Package bootstrap opens the backing services every binary shares: the job
// store, Redis and the identity provider.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"jobnotify/internal/auth"
	"jobnotify/internal/catalog"
	"jobnotify/internal/config"
	"jobnotify/internal/db"
	"jobnotify/internal/seed"
	"jobnotify/internal/store"
)

// OpenStore connects to PostgreSQL and applies migrations, or returns the
// in-process store when DATABASE_URL is "memory". closeFn releases the pool.
func OpenStore(ctx context.Context, cfg *config.Config, component string) (st store.Store, closeFn func(), err error) {
	if cfg.UsesMemoryStore() {
		log.Printf("[%s] Using in-memory store — data is lost on exit", component)
		return store.NewMemory(), func() {}, nil
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}

	log.Printf("[%s] Connecting to PostgreSQL…", component)
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	if err := db.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	log.Printf("[%s] PostgreSQL connected ✓", component)
	return store.NewPostgres(pool), pool.Close, nil
}

// OpenRedis connects to Redis. Redis is optional only alongside the in-memory
// store; a nil client means events and shared slots are disabled.
func OpenRedis(ctx context.Context, cfg *config.Config, component string) (*redis.Client, error) {
	if cfg.RedisURL == "" && cfg.UsesMemoryStore() {
		log.Printf("[%s] Redis not configured — events disabled", component)
		return nil, nil
	}
	if err := cfg.RequireRedis(); err != nil {
		return nil, err
	}

	log.Printf("[%s] Connecting to Redis…", component)
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Printf("[%s] Redis connected ✓", component)
	return rdb, nil
}

// Provider returns the configured identity provider.
func Provider(cfg *config.Config) (auth.Provider, error) {
	switch cfg.AuthMode() {
	case config.AuthSupabase:
		return auth.NewGoTrue(cfg.SupabaseURL, cfg.SupabaseAnonKey), nil
	case config.AuthLocal:
		return auth.NewLocal(cfg.AdminEmail, cfg.AdminPasswordHash, auth.DefaultSessionTTL), nil
	}
	return nil, cfg.RequireAuth()
}

// Catalog builds the catalog with the configured policy and seed file.
func Catalog(st store.Store, cfg *config.Config) (*catalog.Catalog, error) {
	opts := catalog.Options{Policy: cfg.TagSyncPolicy}
	if cfg.SeedPath != "" {
		s, err := seed.LoadFile(cfg.SeedPath)
		if err != nil {
			return nil, err
		}
		opts.Seed = s
	}
	return catalog.New(st, opts), nil
}
