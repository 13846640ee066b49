package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnotify/internal/auth"
	"jobnotify/internal/bootstrap"
	"jobnotify/internal/catalog"
	"jobnotify/internal/config"
	"jobnotify/internal/store"
)

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "memory"}
	st, closeFn, err := bootstrap.OpenStore(context.Background(), cfg, "test")
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.Memory{}, st)

	rdb, err := bootstrap.OpenRedis(context.Background(), cfg, "test")
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestOpenStore_RequiresDatabase(t *testing.T) {
	_, _, err := bootstrap.OpenStore(context.Background(), &config.Config{}, "test")
	assert.EqualError(t, err, "DATABASE_URL is required")

	_, err = bootstrap.OpenRedis(context.Background(), &config.Config{DatabaseURL: "postgres://x"}, "test")
	assert.EqualError(t, err, "REDIS_URL is required")
}

func TestProvider(t *testing.T) {
	p, err := bootstrap.Provider(&config.Config{SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &auth.GoTrue{}, p)

	p, err = bootstrap.Provider(&config.Config{AdminEmail: "a@b.c", AdminPasswordHash: "$2a$10$x"})
	require.NoError(t, err)
	assert.IsType(t, &auth.Local{}, p)

	_, err = bootstrap.Provider(&config.Config{})
	assert.Error(t, err)
}

func TestCatalog_SeedsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
master:
  boards: [SSC]
jobs:
  - board: SSC
    positionName: Clerk
    location: Delhi
    postDate: "2024-06-10"
`), 0o600))

	st := store.NewMemory()
	c, err := bootstrap.Catalog(st, &config.Config{SeedPath: path, TagSyncPolicy: catalog.PolicyConfirmed})
	require.NoError(t, err)
	require.NoError(t, c.Load(context.Background()))

	snap := c.Snapshot()
	require.Len(t, snap.Jobs, 1)
	assert.Equal(t, "Clerk", snap.Jobs[0].PositionName)
	assert.Equal(t, []string{"SSC"}, snap.Master.Boards)
	assert.Equal(t, catalog.PolicyConfirmed, c.Policy())

	_, err = bootstrap.Catalog(st, &config.Config{SeedPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
