// Package httptransport assembles the full HTTP surface: middleware chain,
// domain handlers, health check, and the Prometheus scrape endpoint.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"consentdesk/internal/platform/metrics"
	"consentdesk/internal/platform/middleware"
	"consentdesk/internal/platform/ratelimit"
)

// Registrar is anything that mounts routes on the router. The consent, audit
// and auth handlers all satisfy it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of an optional backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config wires the router together.
type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar
	// Checks run on /healthz; a nil map entry is skipped.
	Checks map[string]HealthChecker
	// Limiter, when set, throttles requests per client IP.
	Limiter *ratelimit.Limiter
}

// New builds the chi router with the standard middleware chain ahead of every
// domain route.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Latency(cfg.Metrics))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if cfg.Limiter != nil {
		r.Use(ratelimit.Middleware(cfg.Limiter, cfg.Logger))
	}

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	r.Get("/healthz", healthHandler(cfg.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// healthHandler pings each registered dependency with a short deadline and
// reports per-check status. Any failing check turns the response 503.
func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		detail := map[string]string{}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				detail[name] = err.Error()
				continue
			}
			detail[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": http.StatusText(status),
			"checks": detail,
		})
	}
}
