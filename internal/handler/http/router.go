package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/health"
	"github.com/utafrali/catalog/pkg/middleware"
)

// RouterConfig tunes the cross-cutting middleware.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	// RateLimit guards writes and the account endpoints. A zero RPS
	// disables it.
	RateLimit middleware.RateLimitConfig
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Products      *ProductHandler
	Auth          *AuthHandler
	Authenticator middleware.Authenticator
	Health        *health.Handler
	HTTPMetrics   *middleware.HTTPMetrics
	Metrics       http.Handler
}

// NewRouter creates a chi router with all catalog routes registered. ctx
// bounds background work started by middleware.
func NewRouter(ctx context.Context, h Handlers, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	if h.HTTPMetrics != nil {
		r.Use(h.HTTPMetrics.Middleware)
	}
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health/live", h.Health.LivenessHandler())
	r.Get("/health/ready", h.Health.ReadinessHandler())
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit.RPS > 0 {
		throttle = middleware.RateLimit(ctx, cfg.RateLimit, logger)
	}
	authenticated := chi.Chain(
		middleware.Auth(h.Authenticator),
		middleware.RequestLogger(logger),
	)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.Products.ListProducts)
		r.Get("/{id}", h.Products.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(throttle)
			r.Use(authenticated...)

			r.Post("/", h.Products.CreateProduct)

			r.With(middleware.RequireRole(string(domain.RoleAdmin))).Patch("/{id}", h.Products.UpdateProduct)
			r.With(middleware.RequireRole(string(domain.RoleAdmin))).Delete("/{id}", h.Products.DeleteProduct)
		})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(throttle).Post("/register", h.Auth.Register)
		r.With(throttle).Post("/login", h.Auth.Login)
		r.With(authenticated...).Get("/check-status", h.Auth.CheckStatus)
	})

	return r
}
