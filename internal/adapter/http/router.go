package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iho/fxreval/internal/adapter/http/handler"
	"github.com/iho/fxreval/internal/adapter/http/middleware"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/infrastructure/auth"
	"github.com/iho/fxreval/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	RateHandler        *handler.RateHandler
	RevaluationHandler *handler.RevaluationHandler
	ReportHandler      *handler.ReportHandler
	SettingsHandler    *handler.SettingsHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	// Optional
	LoggingMiddleware *middleware.LoggingMiddleware
	RateLimiter       *middleware.RateLimiter
	IdempotencyStore  usecase.IdempotencyStore
	IdempotencyTTL    time.Duration
	// JWTManager enables bearer-token auth and role checks on /api/v1 when set.
	JWTManager *auth.JWTManager
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Wrap)
	}
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	canPost := requireRole(cfg.JWTManager, domain.Role.CanPost)
	canManage := requireRole(cfg.JWTManager, domain.Role.CanManageSettings)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Companies
		r.Route("/companies/{companyID}", func(r chi.Router) {
			r.Get("/settings", cfg.SettingsHandler.Get)
			r.With(canManage).Put("/settings", cfg.SettingsHandler.Update)
			r.Get("/accounts", cfg.AccountHandler.List)
			r.Get("/revaluation-defaults", cfg.RevaluationHandler.Defaults)
			r.With(canPost).Post("/revaluations", cfg.RevaluationHandler.Run)
			r.Get("/reports/unrealized", cfg.ReportHandler.Unrealized)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.With(canManage).Patch("/{id}/revaluation", cfg.AccountHandler.SetRevaluation)
		})

		// Rates
		r.Route("/rates", func(r chi.Router) {
			r.With(canPost).Post("/", cfg.RateHandler.Set)
			r.Get("/{currency}", cfg.RateHandler.List)
			r.Get("/{currency}/as-of", cfg.RateHandler.AsOf)
		})

		// Moves
		r.With(canPost).Post("/moves/{id}/reverse", cfg.RevaluationHandler.Reverse)

		// Ledger
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}

// requireRole applies a role check only when authentication is enabled.
func requireRole(jwtManager *auth.JWTManager, allowed func(domain.Role) bool) func(http.Handler) http.Handler {
	if jwtManager == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequireRole(allowed)
}
