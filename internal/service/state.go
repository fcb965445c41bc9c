package service

import (
	"context"
	"errors"
	"sync"

	"klask-tracker/internal/constants"
	"klask-tracker/internal/domain"
	"klask-tracker/internal/storage"

	"github.com/rs/zerolog"
)

// StateSession owns the single in-memory copy of the championship state.
// It loads lazily from the store and serialises every mutation; a mutation
// becomes visible only after the store accepted it.
type StateSession struct {
	store  storage.Store
	logger zerolog.Logger

	mu      sync.Mutex
	state   *domain.State
	version string
	loaded  bool
}

func NewStateSession(store storage.Store, logger zerolog.Logger) *StateSession {
	return &StateSession{store: store, logger: logger}
}

// Snapshot returns a copy of the current state that the caller may keep.
func (s *StateSession) Snapshot(ctx context.Context) (*domain.State, error) {
	st, _, err := s.Current(ctx)
	return st, err
}

// Current returns a copy of the state together with the version token it
// was read or written under.
func (s *StateSession) Current(ctx context.Context) (*domain.State, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return nil, "", err
	}
	return s.state.Clone(), s.version, nil
}

// Mutate applies fn to a copy of the state and persists the result under
// the description fn returns. An error from fn or from the store leaves the
// session unchanged.
func (s *StateSession) Mutate(ctx context.Context, fn func(*domain.State) (string, error)) (*domain.State, error) {
	st, _, err := s.mutate(ctx, fn)
	return st, err
}

func (s *StateSession) mutate(ctx context.Context, fn func(*domain.State) (string, error)) (*domain.State, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return nil, "", err
	}

	next := s.state.Clone()
	description, err := fn(next)
	if err != nil {
		return nil, "", err
	}

	writeCtx, cancel := context.WithTimeout(ctx, constants.StorageTimeout)
	defer cancel()

	version, err := s.store.Write(writeCtx, next, s.version, description)
	if err != nil {
		s.logger.Error().Err(err).Str("backend", s.store.Name()).Str("description", description).Msg("failed to save state")
		return nil, "", domain.StorageError("service.StateSession.Mutate", err)
	}

	s.state = next
	s.version = version
	s.logger.Info().Str("version", version).Str("description", description).Msg("state saved")
	return next.Clone(), version, nil
}

// Replace swaps the whole document, as an import does, and returns the
// stored state with its new version.
func (s *StateSession) Replace(ctx context.Context, doc *domain.State, description string) (*domain.State, string, error) {
	if doc == nil {
		return nil, "", domain.NewError("service.StateSession.Replace", domain.ErrInvalidDocument, "document is required")
	}
	if description == "" {
		description = "Replace championship data"
	}

	return s.mutate(ctx, func(st *domain.State) (string, error) {
		*st = *doc.Clone()
		return description, nil
	})
}

// Reload drops the cached state and reads the store again.
func (s *StateSession) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	return s.load(ctx)
}

// Revisions lists saved versions when the backend keeps them.
func (s *StateSession) Revisions(ctx context.Context, limit int) ([]domain.Revision, error) {
	lister, ok := s.store.(storage.RevisionLister)
	if !ok {
		return nil, domain.NewError("service.StateSession.Revisions", domain.ErrUnsupported,
			"%s storage does not keep revisions", s.store.Name())
	}

	ctx, cancel := context.WithTimeout(ctx, constants.StorageTimeout)
	defer cancel()

	revisions, err := lister.Revisions(ctx, limit)
	if err != nil {
		return nil, domain.StorageError("service.StateSession.Revisions", err)
	}
	return revisions, nil
}

func (s *StateSession) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.StorageTimeout)
	defer cancel()

	state, version, err := s.store.Read(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("backend", s.store.Name()).Msg("failed to load state")
		if errors.Is(err, domain.ErrInvalidDocument) {
			return err
		}
		return domain.StorageError("service.StateSession.load", err)
	}
	if state == nil {
		s.logger.Info().Str("backend", s.store.Name()).Msg("no stored state, starting empty")
		state = domain.NewState()
	}

	s.state = state
	s.version = version
	s.loaded = true
	s.logger.Debug().
		Str("version", version).
		Int("players", len(state.Players)).
		Int("games", len(state.Games)).
		Msg("state loaded")
	return nil
}
