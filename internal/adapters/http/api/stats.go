package api

import "net/http"

// StatsProvider reports the ranking service state served at /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves service counters: rankings loaded, last reload,
// queue length and worker settings.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler over provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
