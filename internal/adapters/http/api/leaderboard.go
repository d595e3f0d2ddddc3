package api

import (
	"net/http"
	"strconv"
)

// LeaderboardEntry is one ranked person without the series.
type LeaderboardEntry struct {
	Rank  int     `json:"rank"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	charts   ChartProvider
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(charts ChartProvider, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		charts:   charts,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N. The Other bucket is
// never part of the leaderboard. Without limit every ranked person is listed.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
	}
	c, ok := h.charts.Chart()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", NewKind(op, ErrNotReady))
		return
	}

	entries := make([]LeaderboardEntry, 0, n)
	for _, s := range c.Series {
		if s.Other || len(entries) == n {
			continue
		}
		entries = append(entries, LeaderboardEntry{Rank: len(entries) + 1, Label: s.Label, Total: s.Total})
	}
	writeJSON(w, http.StatusOK, entries)
}
