package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"klask-tracker/internal/config"
	"klask-tracker/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := database.Open(config.StorageConfig{
		Backend: config.BackendSQLite,
		DBPath:  filepath.Join(t.TempDir(), "revisions.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepository(t *testing.T, retention int) *RevisionRepository {
	db := openTestDB(t)
	return NewRevisionRepository(db, NewQueries(db, database.DialectSQLite), retention, zerolog.Nop())
}

func TestRevisionRepositoryEmpty(t *testing.T) {
	repo := newTestRepository(t, 0)

	rev, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rev)

	list, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRevisionRepositoryAppendAndLatest(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, 0)

	first, err := repo.Append(ctx, []byte(`{"players":[]}`), "initial")
	require.NoError(t, err)
	second, err := repo.Append(ctx, []byte(`{"players":[{"id":1,"name":"Alice"}]}`), "Add player: Alice")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.NotEqual(t, first.ID, second.ID)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.JSONEq(t, `{"players":[{"id":1,"name":"Alice"}]}`, string(latest.Document))
	assert.Equal(t, "Add player: Alice", latest.Description)
	assert.False(t, latest.CreatedAt.IsZero())

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Nil(t, list[0].Document)
}

func TestRevisionRepositoryRetention(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, 2)

	var last string
	for i := 0; i < 5; i++ {
		rev, err := repo.Append(ctx, []byte(`{}`), "save")
		require.NoError(t, err)
		last = rev.ID
	}

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, last, list[0].ID)
	assert.Equal(t, int64(5), list[0].Seq)
	assert.Equal(t, int64(4), list[1].Seq)
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	assert.Equal(t, q, rebind(database.DialectSQLite, q))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", rebind(database.DialectPostgres, q))
}
