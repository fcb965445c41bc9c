// Package storage persists the championship document. Every backend stores
// the whole document per save and hands out an opaque version token; writes
// carrying a stale token are logged and applied anyway, so the last writer
// wins.
package storage

import (
	"context"
	"fmt"

	"klask-tracker/internal/api"
	"klask-tracker/internal/config"
	"klask-tracker/internal/database"
	"klask-tracker/internal/domain"
	"klask-tracker/internal/repository"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Store interface {
	// Read returns the stored state and its version token. A backend with
	// no document yet returns a nil state and an empty token.
	Read(ctx context.Context) (*domain.State, string, error)

	// Write replaces the stored document and returns the new version token.
	// version is the token the caller last read.
	Write(ctx context.Context, s *domain.State, version, description string) (string, error)

	Name() string
	Close() error
}

// RevisionLister is implemented by backends that keep a save history.
type RevisionLister interface {
	Revisions(ctx context.Context, limit int) ([]domain.Revision, error)
}

// Open builds the store selected by cfg.Backend.
func Open(cfg config.StorageConfig, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("storage", cfg.Backend).Logger()

	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.DataFile, logger), nil

	case config.BackendSQLite, config.BackendPostgres:
		db, dialect, err := database.Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		repo := repository.NewRevisionRepository(db, repository.NewQueries(db, dialect), cfg.RevisionRetention, logger)
		return NewSQLStore(db, repo, string(dialect), logger), nil

	case config.BackendGitHub:
		client := api.NewGitHubClient(cfg.GitHub)
		return NewGitHubStore(client, cfg.GitHub.Path, logger), nil

	case config.BackendRedis:
		return NewRedisStore(cfg.Redis, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func NewStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	store, err := Open(cfg.Storage, logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open storage")
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Str("backend", store.Name()).Msg("error closing storage")
			}
			return nil
		},
	})

	logger.Info().Str("backend", store.Name()).Msg("storage ready")
	return store, nil
}

// logStale records a write that overwrites a version the caller never saw.
func logStale(logger zerolog.Logger, expected, actual string) {
	if expected == actual {
		return
	}
	logger.Warn().
		Str("expected_version", expected).
		Str("actual_version", actual).
		Msg("stored document changed since last read, overwriting")
}
