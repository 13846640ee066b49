package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is a single idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations lists the schema steps in the order they run.
var Migrations = []Migration{
	{
		Name: "create_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS jobs (
				id            TEXT PRIMARY KEY,
				post_date     TEXT NOT NULL DEFAULT '',
				last_date     TEXT NOT NULL DEFAULT '',
				board         TEXT NOT NULL DEFAULT '',
				position_name TEXT NOT NULL DEFAULT '',
				eligibility   TEXT[] NOT NULL DEFAULT '{}',
				location      TEXT NOT NULL DEFAULT '',
				pdf_url       TEXT NOT NULL DEFAULT '',
				apply_url     TEXT NOT NULL DEFAULT '',
				vacancies     INTEGER,
				salary        TEXT,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
	},
	{
		Name: "index_jobs_post_date",
		SQL:  `CREATE INDEX IF NOT EXISTS jobs_post_date_idx ON jobs (post_date DESC)`,
	},
	{
		Name: "create_master_configs",
		SQL: `
			CREATE TABLE IF NOT EXISTS master_configs (
				id            INTEGER PRIMARY KEY,
				boards        TEXT[] NOT NULL DEFAULT '{}',
				locations     TEXT[] NOT NULL DEFAULT '{}',
				eligibilities TEXT[] NOT NULL DEFAULT '{}',
				seeded_at     TIMESTAMPTZ,
				updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
	},
}

// RunMigrations executes every migration against pool, stopping at the first
// failure.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("Starting database migrations")

	for _, m := range Migrations {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			slog.Error("Migration failed", "name", m.Name, "error", err)
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		slog.Info("Migration completed", "name", m.Name)
	}

	slog.Info("All migrations completed successfully")
	return nil
}
