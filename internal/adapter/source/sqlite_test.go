package source

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crontab/internal/executor"
	"crontab/internal/platform/sqlite"
	"crontab/internal/shared"
	"crontab/migrations"
)

func seededDB(t *testing.T) *sqlite.TestDB {
	t.Helper()
	tdb := sqlite.NewTestDB(t)
	tdb.Migrate(t, migrations.FS, migrations.SQLiteDir)
	tdb.Exec(t, `INSERT INTO cron_jobs (position, name, command, expression, type, params, enabled) VALUES
		(2, 'report', 'echo', '0 9 * * 1', 'internal', '{"upper": true, "count": 3}', 1),
		(1, 'backup', 'pg_dump app', '0 3 * * *', 'external', NULL, 1),
		(3, 'legacy', 'old.sh', '* * * * *', 'external', NULL, 0),
		(1, 'cleanup', 'rm -rf /tmp/x', '@daily', 'external', '', 1)`)
	return tdb
}

func TestSQLite_Load(t *testing.T) {
	tdb := seededDB(t)

	records, err := NewSQLite(tdb.Path, false, nil).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3, "disabled rows are not loaded")
	assert.Equal(t, "backup", records[0].Name)
	assert.Equal(t, "cleanup", records[1].Name)
	assert.Equal(t, "report", records[2].Name)
	assert.Nil(t, records[0].Params)
	assert.Nil(t, records[1].Params)
	assert.Equal(t, map[string]any{"upper": true, "count": json.Number("3")}, records[2].Params)
}

func TestSQLite_ParamsBecomeFlags(t *testing.T) {
	tdb := seededDB(t)

	reg, err := Registry(context.Background(), NewSQLite(tdb.Path, false, nil))
	require.NoError(t, err)

	job, ok := reg.Get("report")
	require.True(t, ok)
	assert.Equal(t, []string{"--count=3", "--upper"}, executor.Args(job.Params()))
}

func TestSQLite_AutoMigrateCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "crontab.sqlite")

	records, err := NewSQLite(path, true, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLite_MissingTable(t *testing.T) {
	tdb := sqlite.NewTestDB(t)

	_, err := NewSQLite(tdb.Path, false, nil).Load(context.Background())
	assert.Error(t, err)
}

func TestSQLite_BadParams(t *testing.T) {
	tdb := sqlite.NewTestDB(t)
	tdb.Migrate(t, migrations.FS, migrations.SQLiteDir)
	tdb.Exec(t, `INSERT INTO cron_jobs (name, command, expression, type, params) VALUES ('x', 'echo', '* * * * *', 'internal', '{oops')`)

	_, err := NewSQLite(tdb.Path, false, nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, shared.HasKind(err, shared.KindInvalidJob))
}

func TestDecodeParams(t *testing.T) {
	params, err := decodeParams("j", []byte(` {"a": 1.5, "b": null, "c": ["x", 2]} `))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1.5"), params["a"])
	assert.Nil(t, params["b"])
	assert.Equal(t, []any{"x", json.Number("2")}, params["c"])

	params, err = decodeParams("j", []byte("null"))
	require.NoError(t, err)
	assert.Nil(t, params)
}
