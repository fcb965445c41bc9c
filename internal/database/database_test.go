package database

import (
	"path/filepath"
	"testing"

	"klask-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteRunsMigrations(t *testing.T) {
	cfg := config.StorageConfig{
		Backend: config.BackendSQLite,
		DBPath:  filepath.Join(t.TempDir(), "klask.db"),
	}

	db, dialect, err := Open(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DialectSQLite, dialect)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM state_revisions").Scan(&count))
	assert.Zero(t, count)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenRejectsDocumentBackends(t *testing.T) {
	_, _, err := Open(config.StorageConfig{Backend: config.BackendFile}, zerolog.Nop())
	assert.Error(t, err)
}
