package model

import (
	"bytes"
	"encoding/json"
)

// BestResult is the single most noteworthy placement of an athlete.
// The zero value is the "no data" sentinel.
type BestResult struct {
	Place int
	Year  int
	found bool
}

// NoData is returned when an athlete has no valid placement.
var NoData = BestResult{}

// NewBestResult builds a found result.
func NewBestResult(place, year int) BestResult {
	return BestResult{Place: place, Year: year, found: true}
}

// IsNoData reports whether r is the sentinel.
func (r BestResult) IsNoData() bool { return !r.found }

type bestResultJSON struct {
	Place int `json:"place"`
	Year  int `json:"year"`
}

// MarshalJSON encodes the sentinel as null.
func (r BestResult) MarshalJSON() ([]byte, error) {
	if !r.found {
		return []byte("null"), nil
	}
	return json.Marshal(bestResultJSON{Place: r.Place, Year: r.Year})
}

// UnmarshalJSON decodes null as the sentinel.
func (r *BestResult) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*r = NoData
		return nil
	}
	var v bestResultJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = NewBestResult(v.Place, v.Year)
	return nil
}

// RankedAthlete is an athlete as served by the API, with its best result.
type RankedAthlete struct {
	Athlete
	Best BestResult `json:"best"`
}
