package api

import (
	"fmt"
	"net/http"

	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// ReloadHandler triggers a reload of every published ranking.
type ReloadHandler struct {
	deps Dependencies
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps Dependencies) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

type reloadResponse struct {
	model.ReloadReport
	Error string `json:"error,omitempty"`
}

// HandleReload handles POST /reload. Partial failures still answer 200 with
// the error attached; a reload that loaded nothing answers 502.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Reload(r.Context())
	if err != nil && report.Loaded == 0 {
		writeError(w, http.StatusBadGateway, "reload_failed", fmt.Errorf("%w: %w", ErrReload, err))
		return
	}
	resp := reloadResponse{ReloadReport: report}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
