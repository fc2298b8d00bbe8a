package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// RankingsHandler serves loaded rankings.
type RankingsHandler struct {
	deps         Dependencies
	maxLimit     int
	avatarPrefix string
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies, maxLimit int, avatarPrefix string) *RankingsHandler {
	return &RankingsHandler{deps: deps, maxLimit: maxLimit, avatarPrefix: avatarPrefix}
}

// HandleList handles GET /rankings.
func (h *RankingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Rankings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if list == nil {
		list = []model.IndexEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rankings": list})
}

// HandleGet handles GET /rankings/{id}?year=&region=&limit=.
func (h *RankingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f model.RankingFilter
	if s := q.Get("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid year %q", ErrBadRequest, s))
			return
		}
		f.Year = year
	}
	f.Region = strings.TrimSpace(q.Get("region"))
	limit, ok := h.limit(w, q.Get("limit"))
	if !ok {
		return
	}
	f.Limit = limit

	ranking, err := h.deps.Ranking(r.Context(), r.PathValue("id"), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRankingView(ranking, h.avatarPrefix))
}

// HandleTop handles GET /rankings/{id}/top?limit=.
func (h *RankingsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r.URL.Query().Get("limit"))
	if !ok {
		return
	}
	id := r.PathValue("id")
	top, err := h.deps.Top(r.Context(), id, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topView{ID: id, Athletes: newAthleteViews(top, h.avatarPrefix)})
}

// HandleAthlete handles GET /rankings/{id}/athletes/{name}.
func (h *RankingsHandler) HandleAthlete(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing athlete name", ErrBadRequest))
		return
	}
	a, err := h.deps.Athlete(r.Context(), r.PathValue("id"), name)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAthleteView(a, h.avatarPrefix, true))
}

// limit parses an optional limit. It writes the error response itself and
// reports false when the value is rejected.
func (h *RankingsHandler) limit(w http.ResponseWriter, s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid limit %q", ErrBadRequest, s))
		return 0, false
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, h.maxLimit))
		return 0, false
	}
	return n, true
}

func (h *RankingsHandler) fail(w http.ResponseWriter, err error) {
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
