package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestUpFiles_BothDrivers(t *testing.T) {
	for _, dir := range []string{"sqlite", "postgres"} {
		files, err := upFiles(dir)
		require.NoError(t, err)
		assert.Contains(t, files, "001_learning_sessions.up.sql", dir)
	}
}

func TestRunSQLiteMigrations_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, RunSQLiteMigrations(ctx, db))
	require.NoError(t, RunSQLiteMigrations(ctx, db))

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learning_sessions`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
