package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"klask-tracker/internal/api"
	"klask-tracker/internal/constants"
	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// GitHubStore keeps the document as a file in a GitHub repository. Every
// write is a commit whose message is the change description; the blob sha
// is the version token.
type GitHubStore struct {
	client *api.GitHubClient
	path   string
	logger zerolog.Logger
}

func NewGitHubStore(client *api.GitHubClient, path string, logger zerolog.Logger) *GitHubStore {
	return &GitHubStore{client: client, path: strings.Trim(path, "/"), logger: logger}
}

func (g *GitHubStore) Name() string { return "github" }

func (g *GitHubStore) Close() error { return nil }

func (g *GitHubStore) Read(ctx context.Context) (*domain.State, string, error) {
	contents, err := g.client.GetContents(ctx, g.path)
	if errors.Is(err, api.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		g.logger.Error().Err(err).Str("path", g.path).Msg("failed to fetch document")
		return nil, "", fmt.Errorf("failed to fetch %s: %w", g.path, err)
	}

	data, err := contents.Decoded()
	if err != nil {
		return nil, "", domain.WrapError("storage.GitHubStore.Read", domain.ErrInvalidDocument, "undecodable file contents", err)
	}
	s, err := domain.Decode(data)
	if err != nil {
		return nil, "", err
	}
	return s, contents.SHA, nil
}

func (g *GitHubStore) Write(ctx context.Context, s *domain.State, version, description string) (string, error) {
	data, err := domain.Encode(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	if description == "" {
		description = "Update championship data"
	}

	res, err := g.client.PutContents(ctx, g.path, data, version, description)
	if errors.Is(err, api.ErrConflict) {
		current, lookupErr := g.currentSHA(ctx)
		if lookupErr != nil {
			return "", lookupErr
		}
		logStale(g.logger, version, current)
		res, err = g.client.PutContents(ctx, g.path, data, current, description)
	}
	if err != nil {
		g.logger.Error().Err(err).Str("path", g.path).Msg("failed to commit document")
		return "", fmt.Errorf("failed to commit %s: %w", g.path, err)
	}

	rl := g.client.GetRateLimitInfo()
	g.logger.Debug().
		Str("sha", res.Content.SHA).
		Str("commit", res.Commit.SHA).
		Int("rate_limit_remaining", rl.Remaining).
		Msg("document committed")

	return res.Content.SHA, nil
}

func (g *GitHubStore) Revisions(ctx context.Context, limit int) ([]domain.Revision, error) {
	if limit <= 0 || limit > constants.RevisionListLimit {
		limit = constants.RevisionListLimit
	}

	commits, err := g.client.ListCommits(ctx, g.path, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits for %s: %w", g.path, err)
	}

	revisions := make([]domain.Revision, len(commits))
	for i, c := range commits {
		revisions[i] = domain.Revision{
			ID:          c.SHA,
			Seq:         int64(len(commits) - i),
			Description: c.Commit.Message,
			CreatedAt:   c.Commit.Author.Date,
		}
	}
	return revisions, nil
}

func (g *GitHubStore) currentSHA(ctx context.Context) (string, error) {
	contents, err := g.client.GetContents(ctx, g.path)
	if errors.Is(err, api.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", g.path, err)
	}
	return contents.SHA, nil
}
