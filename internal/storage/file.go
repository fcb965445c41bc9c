package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// FileStore keeps the document in a single JSON file. Versions are content
// hashes.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) Name() string { return "file" }

func (f *FileStore) Close() error { return nil }

func (f *FileStore) Read(ctx context.Context) (*domain.State, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, version, err := f.read()
	if err != nil || data == nil {
		return nil, "", err
	}

	s, err := domain.Decode(data)
	if err != nil {
		return nil, "", err
	}
	return s, version, nil
}

func (f *FileStore) Write(ctx context.Context, s *domain.State, version, description string) (string, error) {
	data, err := domain.Encode(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, current, err := f.read()
	if err != nil {
		return "", err
	}
	logStale(f.logger, version, current)

	if err := writeAtomic(f.path, data); err != nil {
		f.logger.Error().Err(err).Str("path", f.path).Msg("failed to write state file")
		return "", fmt.Errorf("failed to write %s: %w", f.path, err)
	}

	f.logger.Debug().Str("path", f.path).Str("description", description).Msg("state file written")
	return hashVersion(data), nil
}

func (f *FileStore) read() ([]byte, string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return data, hashVersion(data), nil
}

// writeAtomic replaces path through a rename so readers never see a partial
// document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func hashVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
