package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/chatgraph/pkg/metrics"
)

// HealthHandler handles health and metrics requests.
type HealthHandler struct {
	charts ChartProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(charts ChartProvider) *HealthHandler {
	return &HealthHandler{charts: charts}
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// HandleHealth handles GET /healthz. The process is healthy as soon as it
// serves; ready reports whether a chart is available.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	_, ready := h.charts.Chart()
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Ready: ready})
}

// MetricsHandler serves the pipeline metrics registry.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
