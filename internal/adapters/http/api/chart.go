package api

import (
	"bytes"
	"net/http"

	"github.com/okian/chatgraph/internal/adapters/render"
)

// ChartHandler serves the rendered chart and its data.
type ChartHandler struct {
	charts ChartProvider
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(charts ChartProvider) *ChartHandler {
	return &ChartHandler{charts: charts}
}

// HandleChart handles GET / with the stacked area page.
func (h *ChartHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart"
	if r.Method != http.MethodGet || r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	c, ok := h.charts.Chart()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", NewKind(op, ErrNotReady))
		return
	}
	// Render into a buffer so a failure can still set the status code.
	var buf bytes.Buffer
	if err := render.HTML(&buf, c); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// HandleData handles GET /data.json with the chart as JSON.
func (h *ChartHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_data"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, ok := h.charts.Chart()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", NewKind(op, ErrNotReady))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
