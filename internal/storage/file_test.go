package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "data.json"), zerolog.Nop()))
}

func TestFileStoreWritesIndentedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "data.json")
	store := NewFileStore(path, zerolog.Nop())

	_, err := store.Write(context.Background(), domain.NewState(), "", "initial")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"players\": []")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreReadsHandWrittenDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players":[],"championship":{"championId":null,"challengerId":null,"winsInRow":0}}`), 0o644))

	state, version, err := NewFileStore(path, zerolog.Nop()).Read(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.NotEmpty(t, version)
	assert.Empty(t, state.Games)
}

func TestFileStoreMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players": [`), 0o644))

	_, _, err := NewFileStore(path, zerolog.Nop()).Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestFileStoreVersionTracksContent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	store := NewFileStore(path, zerolog.Nop())

	v1, err := store.Write(ctx, sampleState("Alice"), "", "one")
	require.NoError(t, err)
	v2, err := store.Write(ctx, sampleState("Alice"), v1, "same content")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	require.NoError(t, os.WriteFile(path, []byte(`{"players":[{"id":9,"name":"Zed"}]}`), 0o644))
	_, v3, err := store.Read(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestFileStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileStore(filepath.Join(t.TempDir(), "data.json"), zerolog.Nop()).Write(ctx, domain.NewState(), "", "x")
	assert.ErrorIs(t, err, context.Canceled)
}
