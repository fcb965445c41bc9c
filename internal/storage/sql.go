package storage

import (
	"context"
	"database/sql"
	"fmt"

	"klask-tracker/internal/domain"
	"klask-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// SQLStore saves every write as a new revision row. The newest revision is
// the state and its id is the version token.
type SQLStore struct {
	db      *sql.DB
	repo    *repository.RevisionRepository
	dialect string
	logger  zerolog.Logger
}

func NewSQLStore(db *sql.DB, repo *repository.RevisionRepository, dialect string, logger zerolog.Logger) *SQLStore {
	return &SQLStore{db: db, repo: repo, dialect: dialect, logger: logger}
}

func (s *SQLStore) Name() string { return s.dialect }

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Read(ctx context.Context) (*domain.State, string, error) {
	rev, err := s.repo.Latest(ctx)
	if err != nil || rev == nil {
		return nil, "", err
	}

	state, err := domain.Decode(rev.Document)
	if err != nil {
		return nil, "", err
	}
	return state, rev.ID, nil
}

func (s *SQLStore) Write(ctx context.Context, state *domain.State, version, description string) (string, error) {
	data, err := domain.Encode(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	latest, err := s.repo.Latest(ctx)
	if err != nil {
		return "", err
	}
	current := ""
	if latest != nil {
		current = latest.ID
	}
	logStale(s.logger, version, current)

	rev, err := s.repo.Append(ctx, data, description)
	if err != nil {
		return "", err
	}
	return rev.ID, nil
}

func (s *SQLStore) Revisions(ctx context.Context, limit int) ([]domain.Revision, error) {
	return s.repo.List(ctx, limit)
}
