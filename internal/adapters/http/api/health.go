package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/pitwall/pkg/metrics"
)

// ReadinessProvider reports whether predictions are loaded.
type ReadinessProvider interface {
	Ready(ctx context.Context) bool
}

type healthResponse struct {
	Status   string `json:"status"`
	Snapshot bool   `json:"snapshot"`
}

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	deps ReadinessProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps ReadinessProvider) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /healthz requests. The process is healthy even
// before the first snapshot; snapshot reports whether data is loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Snapshot: h.deps.Ready(r.Context())})
}

// MetricsHandler serves the custom Prometheus registry.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
