package db_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnotify/internal/db"
)

func TestNewPostgresPool_InvalidURL(t *testing.T) {
	_, err := db.NewPostgresPool(context.Background(), "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pgxpool.ParseConfig")
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := db.NewRedisClient(context.Background(), "http://localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.ParseURL")
}

func TestMigrations(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range db.Migrations {
		assert.False(t, seen[m.Name], "duplicate migration %s", m.Name)
		seen[m.Name] = true
		assert.Contains(t, m.SQL, "IF NOT EXISTS", "%s must be idempotent", m.Name)
	}

	require.NotEmpty(t, db.Migrations)
	assert.Equal(t, "create_jobs", db.Migrations[0].Name, "tables before indexes")
	for _, m := range db.Migrations {
		if strings.HasPrefix(m.Name, "create_master_configs") {
			assert.Contains(t, m.SQL, "seeded_at")
		}
	}
}
