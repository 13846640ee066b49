package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobnotify/internal/listing"
)

const masterConfigID = 1

const uniqueViolation = "23505"

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store over pool. Run db.RunMigrations first.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const jobColumns = `id, post_date, last_date, board, position_name, eligibility,
	location, pdf_url, apply_url, vacancies, salary`

func (p *Postgres) ListJobs(ctx context.Context) ([]listing.Job, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY post_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]listing.Job, 0)
	for rows.Next() {
		var j listing.Job
		if err := rows.Scan(
			&j.ID, &j.PostDate, &j.LastDate, &j.Board, &j.PositionName, &j.Eligibility,
			&j.Location, &j.PDFURL, &j.ApplyURL, &j.Vacancies, &j.Salary,
		); err != nil {
			return nil, fmt.Errorf("listJobs scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listJobs rows: %w", err)
	}
	return jobs, nil
}

func (p *Postgres) InsertJobs(ctx context.Context, jobs []listing.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, j := range jobs {
			_, err := tx.Exec(ctx,
				`INSERT INTO jobs (`+jobColumns+`)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				jobArgs(j)...,
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
					return &DuplicateKeyError{ID: j.ID}
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insertJobs: %w", err)
	}
	return nil
}

func (p *Postgres) UpsertJob(ctx context.Context, job listing.Job) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   post_date     = EXCLUDED.post_date,
		   last_date     = EXCLUDED.last_date,
		   board         = EXCLUDED.board,
		   position_name = EXCLUDED.position_name,
		   eligibility   = EXCLUDED.eligibility,
		   location      = EXCLUDED.location,
		   pdf_url       = EXCLUDED.pdf_url,
		   apply_url     = EXCLUDED.apply_url,
		   vacancies     = EXCLUDED.vacancies,
		   salary        = EXCLUDED.salary,
		   updated_at    = NOW()`,
		jobArgs(job)...,
	)
	if err != nil {
		return fmt.Errorf("upsertJob: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteJob(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleteJob: %w", err)
	}
	return nil
}

func (p *Postgres) GetMasterConfig(ctx context.Context) (*MasterConfig, error) {
	var cfg MasterConfig
	err := p.pool.QueryRow(ctx,
		`SELECT boards, locations, eligibilities, seeded_at
		 FROM master_configs WHERE id = $1`,
		masterConfigID,
	).Scan(&cfg.Boards, &cfg.Locations, &cfg.Eligibilities, &cfg.SeededAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getMasterConfig: %w", err)
	}
	cfg.MasterData = cfg.MasterData.Clone()
	return &cfg, nil
}

func (p *Postgres) UpsertMasterConfig(ctx context.Context, cfg MasterConfig) error {
	md := cfg.MasterData.Clone()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO master_configs (id, boards, locations, eligibilities, seeded_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   boards        = EXCLUDED.boards,
		   locations     = EXCLUDED.locations,
		   eligibilities = EXCLUDED.eligibilities,
		   seeded_at     = COALESCE(EXCLUDED.seeded_at, master_configs.seeded_at),
		   updated_at    = NOW()`,
		masterConfigID, md.Boards, md.Locations, md.Eligibilities, cfg.SeededAt,
	)
	if err != nil {
		return fmt.Errorf("upsertMasterConfig: %w", err)
	}
	return nil
}

func jobArgs(j listing.Job) []any {
	eligibility := j.Eligibility
	if eligibility == nil {
		eligibility = []string{}
	}
	return []any{
		j.ID, j.PostDate, j.LastDate, j.Board, j.PositionName, eligibility,
		j.Location, j.PDFURL, j.ApplyURL, j.Vacancies, j.Salary,
	}
}
