package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	TransferHandler       *handler.TransferHandler
	ReceivableHandler     *handler.ReceivableHandler
	CardHandler           *handler.CardHandler
	VerificationHandler   *handler.VerificationHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	// TokenVerifier enables bearer auth. When nil, callers are taken from
	// the X-User-* headers.
	TokenVerifier    middleware.TokenVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	r.Use(middleware.Metrics(cfg.Metrics))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
		} else {
			r.Use(middleware.HeaderIdentity)
		}
		r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		operatorOnly := middleware.RequireRole(domain.RoleOperator)

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Open)
			r.Get("/me", cfg.AccountHandler.Me)
			r.Get("/me/entries", cfg.AccountHandler.Entries)
			r.With(operatorOnly).Post("/{id}/deposits", cfg.TransferHandler.Deposit)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Get("/", cfg.TransferHandler.List)
			r.Get("/{id}", cfg.TransferHandler.Get)
		})

		r.Route("/receivables", func(r chi.Router) {
			r.Post("/", cfg.ReceivableHandler.Create)
			r.Get("/{id}", cfg.ReceivableHandler.Get)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", cfg.CardHandler.Create)
			r.Get("/", cfg.CardHandler.List)
			r.Get("/{id}", cfg.CardHandler.Get)
			r.Post("/{id}/block", cfg.CardHandler.Block)
			r.Post("/{id}/unblock", cfg.CardHandler.Unblock)
			r.Post("/{id}/cancel", cfg.CardHandler.Cancel)
			r.Put("/{id}/limits", cfg.CardHandler.UpdateLimits)
			r.Get("/{id}/transactions", cfg.CardHandler.Transactions)
			r.With(middleware.RequireRole(domain.RoleAcquirer)).Post("/{id}/authorize", cfg.CardHandler.Authorize)
		})

		r.Route("/verification", func(r chi.Router) {
			r.Get("/", cfg.VerificationHandler.Status)
			r.Post("/submit", cfg.VerificationHandler.Submit)
			r.With(middleware.RequireRole(domain.RoleReviewer)).Get("/queue", cfg.VerificationHandler.Queue)
			r.With(middleware.RequireRole(domain.RoleReviewer)).Put("/{user_id}", cfg.VerificationHandler.SetStatus)
		})

		r.With(operatorOnly).Get("/ledger/consistency", cfg.ReconciliationHandler.Consistency)
		r.With(operatorOnly).Get("/reconciliation", cfg.ReconciliationHandler.Open)
	})

	return r
}
