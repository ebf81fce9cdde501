package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricecast/internal/config"
	"pricecast/internal/middleware"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Forecast *ForecastHandler
	Health   *HealthHandler
	Config   config.ServerConfig
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewRouter builds the full middleware chain and mounts all routes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(deps.Config.WriteTimeout, deps.Logger))

	if deps.Config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			deps.Config.RateLimit.RPS,
			deps.Config.RateLimit.Burst,
			deps.Logger,
		)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		deps.Forecast.RegisterRoutes(r)
		deps.Health.RegisterRoutes(r)
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{
			Timeout: 10 * time.Second,
		}))
	}

	return r
}
