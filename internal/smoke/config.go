// Package smoke checks a running rating server end to end: it lists the
// loaded rankings, fetches each one concurrently and verifies ranks and best
// results against the athletes' own event history.
package smoke

import (
	"time"

	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// Config holds settings for one smoke run.
type Config struct {
	BaseURL string        // base URL of the server
	Workers int           // concurrent ranking fetches
	Sample  int           // athletes per ranking checked in detail, 0 for all
	Timeout time.Duration // per-request timeout
	Output  string        // JSON report path, empty to skip
}

type rankingList struct {
	Rankings []model.IndexEntry `json:"rankings"`
}

type athlete struct {
	Rank        int              `json:"rank"`
	Name        string           `json:"name"`
	TotalPoints float64          `json:"total_points"`
	Best        model.BestResult `json:"best_result"`
	BestLabel   string           `json:"best_result_label"`
	Years       model.Years      `json:"years"`
}

type ranking struct {
	ID       string    `json:"id"`
	Count    int       `json:"count"`
	Athletes []athlete `json:"athletes"`
}

// RankingReport is the outcome for one ranking.
type RankingReport struct {
	ID       string   `json:"id"`
	Athletes int      `json:"athletes"`
	Checked  int      `json:"checked"`
	Problems []string `json:"problems,omitempty"`
}

// Report is the outcome of a smoke run.
type Report struct {
	RequestID string          `json:"request_id"`
	BaseURL   string          `json:"base_url"`
	Rankings  []RankingReport `json:"rankings"`
	Problems  int             `json:"problems"`
	Started   time.Time       `json:"started"`
	Duration  time.Duration   `json:"duration_ns"`
}
