package source

import (
	"context"
	"fmt"
	"log/slog"

	"crontab/internal/crontab"
	"crontab/internal/platform/sqlite"
	"crontab/migrations"
)

// SQLite reads enabled rows of the cron_jobs table from an SQLite file.
type SQLite struct {
	path        string
	autoMigrate bool
	logger      *slog.Logger
}

// NewSQLite creates an SQLite source. With autoMigrate the schema is created
// or upgraded before reading.
func NewSQLite(path string, autoMigrate bool, logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLite{path: path, autoMigrate: autoMigrate, logger: logger}
}

// Load implements Source.
func (s *SQLite) Load(ctx context.Context) ([]crontab.Record, error) {
	if s.autoMigrate {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	db, err := sqlite.NewReadOnlyDB(ctx, s.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, selectJobs)
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

	s.logger.Debug("jobs loaded from sqlite", "path", s.path, "jobs", len(records))
	return records, nil
}

// Migrate creates the database file if needed and applies the embedded schema.
func (s *SQLite) Migrate(ctx context.Context) error {
	db, err := sqlite.NewDB(ctx, s.path)
	if err != nil {
		return err
	}
	_ = db.Close()

	version, err := sqlite.ApplyMigrations(s.path, migrations.FS, migrations.SQLiteDir)
	if err != nil {
		return err
	}
	s.logger.Debug("sqlite schema ready", "path", s.path, "version", version)
	return nil
}
