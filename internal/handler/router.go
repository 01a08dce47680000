package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/metrics"
	"github.com/prn-tf/linkday/internal/repository"
)

// healthTimeout bounds the database ping behind /health.
const healthTimeout = 2 * time.Second

// Router wires the LinkDay JSON API.
type Router struct {
	authHandler    *AuthHandler
	linkHandler    *LinkHandler
	userHandler    *UserHandler
	authMiddleware func(http.Handler) http.Handler
	database       repository.DatabaseHealth
	metrics        *metrics.Metrics
	metricsPath    string
	avatarFiles    http.Handler
	corsOrigins    []string
	maxBodySize    int64
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	LinkHandler    *LinkHandler
	UserHandler    *UserHandler
	AuthMiddleware func(http.Handler) http.Handler

	// Database is pinged by /health.
	Database repository.DatabaseHealth

	// Metrics is optional. When set, requests are instrumented and the
	// registry is served at MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string

	// AvatarFiles serves /avatars/* for the filesystem avatar backend.
	AvatarFiles http.Handler

	CORSOrigins []string
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		authHandler:    config.AuthHandler,
		linkHandler:    config.LinkHandler,
		userHandler:    config.UserHandler,
		authMiddleware: config.AuthMiddleware,
		database:       config.Database,
		metrics:        config.Metrics,
		metricsPath:    config.MetricsPath,
		avatarFiles:    config.AvatarFiles,
		corsOrigins:    config.CORSOrigins,
		maxBodySize:    config.MaxBodySize,
		logger:         config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(rt.logger))
	if rt.metrics != nil {
		r.Use(instrument(rt.metrics))
	}
	r.Use(recoverer(rt.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(limitBody(rt.maxBodySize))

	r.NotFound(rt.handleNotFound)
	r.MethodNotAllowed(rt.handleNotFound)

	r.Get("/", rt.handleRoot)
	r.Get("/health", rt.handleHealth)
	if rt.metrics != nil && rt.metricsPath != "" {
		r.Method(http.MethodGet, rt.metricsPath, rt.metrics.Handler())
	}

	r.Route("/api/auth", func(r chi.Router) {
		rt.authHandler.RegisterRoutes(r)
		r.With(rt.authMiddleware).Get("/me", rt.authHandler.Me)
	})

	r.Route("/api/links", func(r chi.Router) {
		r.Use(rt.authMiddleware)
		rt.linkHandler.RegisterRoutes(r)
	})

	r.Post("/api/click/{linkId}", rt.linkHandler.Click)

	userRoutes := func(r chi.Router) {
		rt.userHandler.RegisterRoutes(r, rt.authMiddleware)
	}
	r.Route("/api/user", userRoutes)
	r.Route("/u", userRoutes)

	if rt.avatarFiles != nil {
		r.Method(http.MethodGet, "/avatars/*", rt.avatarFiles)
	}

	return r
}

// handleRoot reports that the API is up.
func (rt *Router) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, envelope{"message": "LinkDay API is running!"})
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := rt.database.Health(ctx); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, envelope{"success": false, "status": "unhealthy"})
			return
		}
	}
	writeSuccess(w, http.StatusOK, envelope{"status": "healthy"})
}

func (rt *Router) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, msgRouteNotFound)
}
