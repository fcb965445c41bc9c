package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"klask-tracker/internal/constants"
	"klask-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// RevisionRepository keeps every save of the state document as an
// append-only row. The newest row is the current state.
type RevisionRepository struct {
	queries   *Queries
	db        *sql.DB
	retention int
	logger    zerolog.Logger
}

// NewRevisionRepository builds a repository. A positive retention keeps only
// that many newest revisions.
func NewRevisionRepository(sqlDB *sql.DB, queries *Queries, retention int, logger zerolog.Logger) *RevisionRepository {
	return &RevisionRepository{
		queries:   queries,
		db:        sqlDB,
		retention: retention,
		logger:    logger,
	}
}

// Latest returns the newest revision, or nil when nothing was saved yet.
func (r *RevisionRepository) Latest(ctx context.Context) (*domain.Revision, error) {
	row, err := r.queries.LatestRevision(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load latest revision")
		return nil, fmt.Errorf("failed to load latest revision: %w", err)
	}

	rev := toRevision(row)
	rev.Document = []byte(row.Document)
	return &rev, nil
}

// Append stores document as the next revision and prunes old ones.
func (r *RevisionRepository) Append(ctx context.Context, document []byte, description string) (*domain.Revision, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	seq, err := qtx.MaxRevisionSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read revision sequence: %w", err)
	}

	rev := domain.Revision{
		ID:          id,
		Seq:         seq + 1,
		Document:    document,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	err = qtx.InsertRevision(ctx, InsertRevisionParams{
		ID:          rev.ID,
		Seq:         rev.Seq,
		Document:    string(document),
		Description: rev.Description,
		CreatedAt:   rev.CreatedAt,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("seq", rev.Seq).Msg("failed to insert revision")
		return nil, fmt.Errorf("failed to insert revision: %w", err)
	}

	if r.retention > 0 && rev.Seq > int64(r.retention) {
		pruned, err := qtx.PruneRevisions(ctx, rev.Seq-int64(r.retention))
		if err != nil {
			return nil, fmt.Errorf("failed to prune revisions: %w", err)
		}
		if pruned > 0 {
			r.logger.Debug().Int64("pruned", pruned).Int("retention", r.retention).Msg("pruned old revisions")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit revision: %w", err)
	}

	r.logger.Debug().
		Str("revision_id", rev.ID).
		Int64("seq", rev.Seq).
		Str("description", rev.Description).
		Msg("revision stored")

	return &rev, nil
}

// List returns revision metadata, newest first. Documents are not loaded.
func (r *RevisionRepository) List(ctx context.Context, limit int) ([]domain.Revision, error) {
	if limit <= 0 || limit > constants.RevisionListLimit {
		limit = constants.RevisionListLimit
	}

	rows, err := r.queries.ListRevisions(ctx, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list revisions")
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}

	revisions := make([]domain.Revision, len(rows))
	for i, row := range rows {
		revisions[i] = toRevision(row)
	}
	return revisions, nil
}

func toRevision(row RevisionRow) domain.Revision {
	return domain.Revision{
		ID:          row.ID,
		Seq:         row.Seq,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
}
