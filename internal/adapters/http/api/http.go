// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/odinsy/topheats-rating/internal/adapters/loader"
	repository "github.com/odinsy/topheats-rating/internal/adapters/repository"
	"github.com/odinsy/topheats-rating/internal/domain/model"
)

const (
	defaultMaxLimit     = 500
	defaultAvatarPrefix = "img/avatars"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Rankings lists the loaded rankings.
	Rankings(ctx context.Context) ([]model.IndexEntry, error)

	// Ranking returns one ranking with the filter applied.
	Ranking(ctx context.Context, id string, f model.RankingFilter) (model.Ranking, error)

	// Athlete returns one athlete of a ranking by name.
	Athlete(ctx context.Context, id, name string) (model.RankedAthlete, error)

	// Top returns the first n ranked athletes. n <= 0 uses the server default.
	Top(ctx context.Context, id string, n int) ([]model.RankedAthlete, error)

	// Reload reloads every published ranking.
	Reload(ctx context.Context) (model.ReloadReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	rankingsHandler *RankingsHandler
	reloadHandler   *ReloadHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxLimit     int
	avatarPrefix string
}

// WithMaxLimit caps the limit query parameter.
func WithMaxLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithAvatarPrefix sets the prefix of avatar image paths.
func WithAvatarPrefix(prefix string) ServerOption {
	return func(c *serverConfig) {
		c.avatarPrefix = prefix
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit, avatarPrefix: defaultAvatarPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		rankingsHandler: NewRankingsHandler(deps, cfg.maxLimit, cfg.avatarPrefix),
		reloadHandler:   NewReloadHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /reload", MetricsMiddleware(s.reloadHandler.HandleReload, "reload"))
	mux.HandleFunc("GET /rankings", MetricsMiddleware(s.rankingsHandler.HandleList, "rankings"))
	mux.HandleFunc("GET /rankings/{id}", MetricsMiddleware(s.rankingsHandler.HandleGet, "ranking"))
	mux.HandleFunc("GET /rankings/{id}/top", MetricsMiddleware(s.rankingsHandler.HandleTop, "top"))
	mux.HandleFunc("GET /rankings/{id}/athletes/{name}", MetricsMiddleware(s.rankingsHandler.HandleAthlete, "athlete"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates store and loader not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, loader.ErrNotFound)
}
