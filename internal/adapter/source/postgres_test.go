package source

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Load_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("CRON_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CRON_TEST_POSTGRES_DSN is not set")
	}
	ctx := context.Background()
	src := NewPostgres(dsn, true, nil)

	_, err := src.Load(ctx)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	_, err = pool.Exec(ctx, `DELETE FROM cron_jobs`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO cron_jobs (position, name, command, expression, type, params, enabled) VALUES
		(2, 'second', 'echo', '* * * * *', 'internal', '{"upper": true}', TRUE),
		(1, 'first', 'true', '0 3 * * *', 'external', NULL, TRUE),
		(0, 'off', 'true', '* * * * *', 'external', NULL, FALSE)`)
	require.NoError(t, err)

	records, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Name)
	assert.Equal(t, "second", records[1].Name)
	assert.Equal(t, true, records[1].Params["upper"])
}
