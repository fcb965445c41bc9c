package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"klask-tracker/internal/config"
	"klask-tracker/internal/constants"
	"klask-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps the document under one key, its version under another
// and a capped list of recent saves for the revision listing.
type RedisStore struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

type changeLogEntry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewRedisStore(cfg config.RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreWithClient(client, cfg.Key, logger), nil
}

func NewRedisStoreWithClient(client *redis.Client, key string, logger zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, key: key, logger: logger}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Close() error { return r.client.Close() }

func (r *RedisStore) versionKey() string { return r.key + ":version" }

func (r *RedisStore) logKey() string { return r.key + ":log" }

func (r *RedisStore) Read(ctx context.Context) (*domain.State, string, error) {
	values, err := r.client.MGet(ctx, r.key, r.versionKey()).Result()
	if err != nil {
		r.logger.Error().Err(err).Str("key", r.key).Msg("failed to read document")
		return nil, "", fmt.Errorf("failed to read %s: %w", r.key, err)
	}

	doc, ok := values[0].(string)
	if !ok {
		return nil, "", nil
	}
	version, _ := values[1].(string)

	s, err := domain.Decode([]byte(doc))
	if err != nil {
		return nil, "", err
	}
	return s, version, nil
}

func (r *RedisStore) Write(ctx context.Context, s *domain.State, version, description string) (string, error) {
	data, err := domain.Encode(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	current, err := r.client.Get(ctx, r.versionKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read version: %w", err)
	}
	logStale(r.logger, version, current)

	next, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}
	entry, err := json.Marshal(changeLogEntry{ID: next, Description: description, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, data, 0)
		pipe.Set(ctx, r.versionKey(), next, 0)
		pipe.LPush(ctx, r.logKey(), entry)
		pipe.LTrim(ctx, r.logKey(), 0, constants.RedisChangeLogLength-1)
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("key", r.key).Msg("failed to write document")
		return "", fmt.Errorf("failed to write %s: %w", r.key, err)
	}
	return next, nil
}

func (r *RedisStore) Revisions(ctx context.Context, limit int) ([]domain.Revision, error) {
	if limit <= 0 || limit > constants.RevisionListLimit {
		limit = constants.RevisionListLimit
	}

	raw, err := r.client.LRange(ctx, r.logKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	revisions := make([]domain.Revision, 0, len(raw))
	for i, item := range raw {
		var entry changeLogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			r.logger.Warn().Err(err).Msg("skipping malformed change log entry")
			continue
		}
		revisions = append(revisions, domain.Revision{
			ID:          entry.ID,
			Seq:         int64(len(raw) - i),
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return revisions, nil
}
