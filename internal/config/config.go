package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendGitHub   = "github"
	BackendRedis    = "redis"
)

type Config struct {
	ServerPort     string
	LogLevel       string
	Timezone       string
	Location       *time.Location
	BasicUser      string
	BasicPass      string
	AllowedOrigins []string
	Storage        StorageConfig
}

type StorageConfig struct {
	Backend string

	DataFile string

	DBPath            string
	DatabaseURL       string
	RevisionRetention int

	GitHub GitHubConfig
	Redis  RedisConfig
}

type GitHubConfig struct {
	Token   string
	Owner   string
	Repo    string
	Path    string
	Branch  string
	BaseURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Timezone).
		Str("storage_backend", cfg.Storage.Backend).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("configuration loaded")

	return cfg, nil
}

// FromEnv reads the configuration from the process environment without
// touching .env files.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("TIMEZONE", "UTC"),
		BasicUser:      getEnv("BASIC_USER", "admin"),
		BasicPass:      getEnv("BASIC_PASS", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
			DataFile:    getEnv("DATA_FILE", "data.json"),
			DBPath:      getEnv("DB_PATH", "klask.db"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			GitHub: GitHubConfig{
				Token:   getEnv("GITHUB_TOKEN", ""),
				Owner:   getEnv("GITHUB_OWNER", ""),
				Repo:    getEnv("GITHUB_REPO", ""),
				Path:    getEnv("GITHUB_PATH", "data.json"),
				Branch:  getEnv("GITHUB_BRANCH", "master"),
				BaseURL: strings.TrimRight(getEnv("GITHUB_API_URL", "https://api.github.com"), "/"),
			},
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", ""),
				Password: getEnv("REDIS_PASSWORD", ""),
				Key:      getEnv("REDIS_KEY", "klask:state"),
			},
		},
	}

	var err error
	if cfg.Storage.RevisionRetention, err = getEnvInt("REVISION_RETENTION", 0); err != nil {
		return nil, err
	}
	if cfg.Storage.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	if cfg.BasicPass == "" {
		return nil, fmt.Errorf("BASIC_PASS is required")
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case BackendFile:
		if s.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the file backend")
		}
	case BackendSQLite:
		if s.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendGitHub:
		if s.GitHub.Token == "" || s.GitHub.Owner == "" || s.GitHub.Repo == "" {
			return fmt.Errorf("GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO are required for the github backend")
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", s.Backend)
	}

	if s.RevisionRetention < 0 {
		return fmt.Errorf("REVISION_RETENTION must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
