package source

import (
	"context"
	"fmt"
	"log/slog"

	"crontab/internal/crontab"
	"crontab/internal/platform/pg"
	"crontab/migrations"
)

// Postgres reads enabled rows of the cron_jobs table from PostgreSQL.
type Postgres struct {
	dsn         string
	autoMigrate bool
	wait        pg.HealthCheckOptions
	logger      *slog.Logger
}

// NewPostgres creates a Postgres source. Load waits for the server with
// pg.DefaultHealthCheckOptions.
func NewPostgres(dsn string, autoMigrate bool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{dsn: dsn, autoMigrate: autoMigrate, wait: pg.DefaultHealthCheckOptions(), logger: logger}
}

// Load implements Source.
func (p *Postgres) Load(ctx context.Context) ([]crontab.Record, error) {
	if err := pg.WaitForDB(ctx, p.dsn, p.wait); err != nil {
		return nil, err
	}
	if p.autoMigrate {
		if err := p.migrate(); err != nil {
			return nil, err
		}
	}

	pool, err := pg.NewPool(ctx, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, selectJobs)
	if err != nil {
		return nil, fmt.Errorf("query cron_jobs: %w", err)
	}
	defer rows.Close()

	var records []crontab.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query cron_jobs: %w", err)
	}

	p.logger.Debug("jobs loaded from postgres", "jobs", len(records))
	return records, nil
}

// Migrate waits for the server and applies the embedded schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if err := pg.WaitForDB(ctx, p.dsn, p.wait); err != nil {
		return err
	}
	return p.migrate()
}

func (p *Postgres) migrate() error {
	info, err := pg.ApplyMigrations(p.dsn, migrations.FS, migrations.PostgresDir)
	if err != nil {
		return err
	}
	p.logger.Debug("postgres schema ready", "applied", info.Applied, "version", info.FinalVersion)
	return nil
}
