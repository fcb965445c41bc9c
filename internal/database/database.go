package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"klask-tracker/internal/config"
	"klask-tracker/internal/constants"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Dialect names the SQL flavour of an open database. Values double as
// goose dialect names.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// Open connects to the revision database for the sqlite or postgres backend
// and brings its schema up to date.
func Open(cfg config.StorageConfig, logger zerolog.Logger) (*sql.DB, Dialect, error) {
	var (
		driver  string
		dsn     string
		dialect Dialect
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		driver, dsn, dialect = "sqlite3", cfg.DBPath, DialectSQLite
		logger.Info().Str("path", cfg.DBPath).Msg("connecting to database")
	case config.BackendPostgres:
		driver, dsn, dialect = "pgx", cfg.DatabaseURL, DialectPostgres
		logger.Info().Str("driver", driver).Msg("connecting to database")
	default:
		return nil, "", fmt.Errorf("backend %q has no database", cfg.Backend)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("database unreachable")
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	if dialect == DialectSQLite {
		if err := optimizeSQLite(db, logger); err != nil {
			db.Close()
			logger.Error().Err(err).Msg("failed to optimize SQLite")
			return nil, "", fmt.Errorf("failed to optimize SQLite: %w", err)
		}
	}
	if err := runMigrations(db, dialect, logger); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("failed to run migrations")
		return nil, "", fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Str("dialect", string(dialect)).Msg("database connection established")
	return db, dialect, nil
}

func runMigrations(db *sql.DB, dialect Dialect, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	logger.Info().Msg("migrations completed successfully")
	return nil
}

func optimizeSQLite(sqlDB *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}

	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := sqlDB.Exec(query); err != nil {
			logger.Warn().
				Err(err).
				Str("pragma", pragma.name).
				Str("value", pragma.value).
				Msg("failed to set pragma")
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
		logger.Debug().
			Str("pragma", pragma.name).
			Str("value", pragma.value).
			Msg("SQLite pragma set")
	}

	return nil
}
