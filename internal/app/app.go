// Package app assembles the shared infrastructure used by the LinkDay
// binaries: the root logger, the repository store and the profile cache.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/cache/memory"
	"github.com/prn-tf/linkday/internal/config"
	"github.com/prn-tf/linkday/internal/repository"
	"github.com/prn-tf/linkday/internal/repository/postgres"
	"github.com/prn-tf/linkday/internal/repository/redis"
	"github.com/prn-tf/linkday/internal/repository/sqlite"
)

// NewLogger builds the root logger from the logging settings. The returned
// closer releases the log file when output is a path.
func NewLogger(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore connects to the configured database, applies migrations when
// auto_migrate is set, and builds the repositories.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFrom(cfg), logger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &repository.Store{
			Repos: &repository.Repositories{
				User: sqlite.NewUserRepository(db),
				Link: sqlite.NewLinkRepository(db),
			},
			Database: db,
		}, nil

	case "postgres":
		if cfg.AutoMigrate {
			if err := MigratePostgres(cfg, logger); err != nil {
				return nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.Store{
			Repos: &repository.Repositories{
				User: postgres.NewUserRepository(db),
				Link: postgres.NewLinkRepository(db),
			},
			Database: db,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MigratePostgres applies all pending PostgreSQL migrations.
func MigratePostgres(cfg config.DatabaseConfig, logger zerolog.Logger) error {
	migrator, err := postgres.NewMigrator(cfg.MigrateURL(), logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Up()
}

// OpenCache returns the profile cache backend, or nil when caching is
// disabled.
func OpenCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		c, err := redis.NewCache(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "memory", "":
		logger.Info().Msg("using in-memory profile cache")
		return memory.NewCache(0), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
