package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDatabaseFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lacewing.db")

	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()

	assert.NotNil(t, database.Conn())
}

func TestNew_InvalidPathFails(t *testing.T) {
	_, err := New("/dev/null/not-a-directory/lacewing.db")
	assert.Error(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lacewing.db")
	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.Migrate())
	require.NoError(t, database.Migrate())

	var tableCount int
	row := database.Conn().QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name IN ('executions','steps','contexts')")
	require.NoError(t, row.Scan(&tableCount))
	assert.Equal(t, 3, tableCount)
}
