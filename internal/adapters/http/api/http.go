// Package api serves the chart of the last pipeline run over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/chatgraph/internal/domain/types"
)

// ChartProvider exposes the chart of the last successful run.
type ChartProvider interface {
	// Chart returns false until a run has completed.
	Chart() (types.Chart, bool)
}

// Server wires HTTP routes for the chart API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	chartHandler       *ChartHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers. maxLimit bounds the
// leaderboard limit parameter.
func NewServer(charts ChartProvider, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(charts),
		statsHandler:       NewStatsHandler(statsProvider),
		chartHandler:       NewChartHandler(charts),
		leaderboardHandler: NewLeaderboardHandler(charts, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/data.json", MetricsMiddleware(s.chartHandler.HandleData, "data"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/", MetricsMiddleware(s.chartHandler.HandleChart, "chart"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
