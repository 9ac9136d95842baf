// If you are AI: This file implements the health check and metrics-exposition endpoints for monitoring and integration tests.

package health

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service provides health check and metrics-exposition functionality.
type Service struct {
	gatherer prometheus.Gatherer
}

// New creates a new health service instance. gatherer may be nil, in
// which case /metrics is not registered.
func New(gatherer prometheus.Gatherer) *Service {
	return &Service{gatherer: gatherer}
}

// RegisterRoutes adds health check routes to the provided mux.
// Registers /healthz (always 200 OK) and, when a gatherer was supplied,
// /metrics (Prometheus exposition format).
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// handleHealth responds to health check requests.
// Returns 200 OK to indicate the server is running.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}
