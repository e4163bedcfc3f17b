// Package migrations embeds the schema of the cron_jobs table for every
// supported database.
package migrations

import "embed"

// FS holds one directory per driver: sqlite/ and postgres/.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Directory names inside FS.
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
