package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-tradfri/internal/bridges/tradfri"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/unsupported", s.handleListUnsupported)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Get("/properties/{name}", s.handleGetProperty)
				r.Put("/properties/{name}", s.handleSetProperty)
			})
		})
	})

	return r
}

// handleHealth returns the bridge health snapshot. The status code is 503
// while the bridge is offline or stopping so load balancers can act on it.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.bridge.Health()
	if health.Version == "" {
		health.Version = s.version
	}

	status := http.StatusOK
	switch health.Status {
	case tradfri.HealthOffline, tradfri.HealthStopping:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
