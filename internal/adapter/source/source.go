// Package source reads job records from the configured backend: a YAML
// crontab file, an SQLite database or PostgreSQL. Records are read once at
// startup; the registry built from them never changes afterwards.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"crontab/internal/crontab"
	"crontab/internal/shared"
)

// Source loads job records in their configured order.
type Source interface {
	Load(ctx context.Context) ([]crontab.Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]crontab.Record, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) ([]crontab.Record, error) {
	return f(ctx)
}

// Registry loads records from src and builds the job registry. Every invalid
// record is reported, not just the first.
func Registry(ctx context.Context, src Source) (*crontab.Registry, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return crontab.BuildRegistry(records)
}

// selectJobs is shared by the SQL backends. `WHERE enabled` holds for both
// SQLite integers and PostgreSQL booleans.
const selectJobs = `
SELECT name, command, expression, type, params
FROM cron_jobs
WHERE enabled
ORDER BY position, id`

// decodeParams parses a JSON object column. Numbers are kept as json.Number
// so integers survive unchanged into command-line flags.
func decodeParams(name string, raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var params map[string]any
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("%w: job %q: params: %w", shared.ErrInvalidJob, name, err)
	}
	return params, nil
}

// scanner is satisfied by *sql.Rows and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (crontab.Record, error) {
	var (
		r   crontab.Record
		raw []byte
	)
	if err := row.Scan(&r.Name, &r.Command, &r.Expression, &r.Type, &raw); err != nil {
		return crontab.Record{}, fmt.Errorf("scan cron_jobs row: %w", err)
	}
	params, err := decodeParams(r.Name, raw)
	if err != nil {
		return crontab.Record{}, err
	}
	r.Params = params
	return r, nil
}
