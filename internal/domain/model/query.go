package model

import "time"

// RankingFilter narrows the athletes of a served ranking.
type RankingFilter struct {
	// Year keeps athletes that competed in that year. Zero keeps everyone.
	Year int
	// Region keeps athletes of that region, compared case-insensitively.
	Region string
	// Limit keeps the first N athletes. Zero keeps everyone.
	Limit int
}

// IsZero reports whether the filter keeps every athlete.
func (f RankingFilter) IsZero() bool {
	return f.Year == 0 && f.Region == "" && f.Limit <= 0
}

// ReloadReport summarises one reload of the published rankings.
type ReloadReport struct {
	Rankings int           `json:"rankings"`
	Loaded   int           `json:"loaded"`
	Failed   int           `json:"failed"`
	Pruned   int           `json:"pruned"`
	Duration time.Duration `json:"duration_ns"`
	At       time.Time     `json:"at"`
}
