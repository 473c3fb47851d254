// Package httptransport assembles the gateway's HTTP surface: middleware
// stack, health and metrics endpoints, and the versioned wizard API.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coopgate/internal/platform/health"
	"coopgate/internal/platform/metrics"
	"coopgate/internal/platform/middleware"
	"coopgate/internal/wizard/handler"
)

// Dependencies collects everything the router mounts.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tokens  middleware.TokenValidator
	Wizard  *handler.Handler
	Health  *health.Handler
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics.ObserveEndpointLatency))
	}
	r.Use(middleware.Timeout(30 * time.Second))

	deps.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Optional auth: anonymous requests drive member wizards, bearer
		// tokens drive admin/superadmin ones.
		r.Use(middleware.Actor(deps.Tokens, deps.Logger))
		deps.Wizard.Register(r)
	})

	return r
}
