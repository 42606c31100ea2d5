package api

import (
	"net/http"
	"time"
)

// StatsProvider reports runtime statistics of the game service.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	started  time.Time
}

// NewStatsHandler creates a stats handler. A nil provider yields 503s.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, started: time.Now()}
}

// HandleStats writes the provider stats plus the handler uptime in seconds.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "not_started", nil)
		return
	}
	out := make(map[string]interface{})
	for k, v := range h.provider.GetStats() {
		out[k] = v
	}
	out["uptimeSeconds"] = int64(time.Since(h.started).Seconds())
	writeJSON(w, http.StatusOK, out)
}
