// Package main is the entry point for the LinkDay API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/app"
	"github.com/prn-tf/linkday/internal/auth"
	"github.com/prn-tf/linkday/internal/config"
	"github.com/prn-tf/linkday/internal/handler"
	"github.com/prn-tf/linkday/internal/metrics"
	"github.com/prn-tf/linkday/internal/pkg/crypto"
	"github.com/prn-tf/linkday/internal/service"
	"github.com/prn-tf/linkday/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "linkday-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, logCloser, err := app.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting LinkDay server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Database.Close()

	cache, err := app.OpenCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	avatarStore, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	profiles := service.NewProfileCache(cache, cfg.Cache.ProfileTTL, logger)
	userService := service.NewUserService(store.Repos.User, store.Repos.Link, profiles, logger)
	linkService := service.NewLinkService(store.Repos.Link, profiles, m, logger)
	authService := service.NewAuthService(store.Repos.User, crypto.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, logger)

	var (
		avatarService *service.AvatarService
		avatarFiles   http.Handler
	)
	if avatarStore != nil {
		avatarService = service.NewAvatarService(avatarStore, userService, cfg.Storage.MaxAvatarSize, logger)
		if fs, ok := avatarStore.(*storage.FilesystemStore); ok {
			avatarFiles = fs.Handler()
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService, userService, logger),
		LinkHandler:    handler.NewLinkHandler(linkService, logger),
		UserHandler:    handler.NewUserHandler(userService, avatarService, logger),
		AuthMiddleware: auth.Middleware(tokens, userService, logger),
		Database:       store.Database,
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		AvatarFiles:    avatarFiles,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxBodySize:    cfg.Server.MaxBodySize,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}

	return shutdown(srv, cfg.Server, logger)
}

// shutdown drains in-flight requests within the configured timeout.
func shutdown(srv *http.Server, cfg config.ServerConfig, logger zerolog.Logger) error {
	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
