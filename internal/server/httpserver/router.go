package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/server/httpserver/handler"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
	"github.com/yndnr/pgpauth-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Authenticator verifies tokens on protected routes. Required.
	Authenticator Authenticator

	// Signers reports the number of trusted keys for /health. Optional.
	Signers handler.SignerCounter

	// RateLimiters throttles protected routes per client IP. Nil disables
	// rate limiting.
	RateLimiters *service.RateLimiterRegistry

	// Metrics records request metrics and backs /metrics.
	Metrics *metric.Registry

	// MetricsEnabled exposes GET /metrics.
	MetricsEnabled bool

	// MetricsBearerToken protects /metrics when set.
	MetricsBearerToken string

	// MaxBodyBytes bounds echoed request bodies.
	MaxBodyBytes int64

	// EnableAudit logs every completed request.
	EnableAudit bool

	Logger logger.Logger
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		MetricsEnabled: true,
		MaxBodyBytes:   handler.DefaultMaxBodyBytes,
		EnableAudit:    true,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	h := handler.New(cfg.Signers, cfg.MaxBodyBytes, log)

	r := chi.NewRouter()
	r.Use(Recover(log), RequestID(log), Metrics(cfg.Metrics))
	if cfg.EnableAudit {
		r.Use(Audit())
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, domain.ErrNotFound.WithDetails(req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteJSON(w, http.StatusMethodNotAllowed, handler.NewErrorResponse(
			logger.RequestIDFromContext(req.Context()), domain.ErrBadRequest.Code, "method not allowed", req.Method))
	})

	r.Get("/health", h.HandleHealth)

	if cfg.MetricsEnabled && cfg.Metrics != nil {
		r.With(MetricsAuth(cfg.MetricsBearerToken)).Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiters != nil {
			r.Use(RateLimit(cfg.RateLimiters, cfg.Metrics))
		}
		r.Use(PGPAuth(cfg.Authenticator))

		r.Get("/echo", h.HandleEcho)
		r.Post("/echo", h.HandleEcho)
	})

	return r
}
