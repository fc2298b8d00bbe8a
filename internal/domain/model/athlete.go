// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// PlaceDNS marks an athlete who was registered but did not start.
const PlaceDNS = "DNS"

// Place is a finishing position as published. Most places are numbers, but
// sources also carry textual markers such as "DNS".
type Place struct {
	raw string
}

// NewPlace builds a Place from its published text.
func NewPlace(s string) Place { return Place{raw: strings.TrimSpace(s)} }

// PlaceOf builds a numeric Place.
func PlaceOf(n int) Place { return Place{raw: strconv.Itoa(n)} }

// Int reports the place as a non-negative integer. ok is false for textual,
// empty and negative values.
func (p Place) Int() (int, bool) {
	if p.raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(p.raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// IsDNS reports whether the place is the did-not-start marker.
func (p Place) IsDNS() bool { return strings.EqualFold(p.raw, PlaceDNS) }

func (p Place) String() string { return p.raw }

// MarshalJSON writes numeric places as numbers and everything else as strings.
func (p Place) MarshalJSON() ([]byte, error) {
	if n, ok := p.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	if p.raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(p.raw)
}

// UnmarshalJSON accepts numbers, strings and null. Anything else decodes to an
// empty place instead of failing the whole document.
func (p *Place) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		p.raw = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		p.raw = strings.TrimSpace(s)
	default:
		var f json.Number
		if err := json.Unmarshal(b, &f); err != nil {
			p.raw = ""
			return nil //nolint:nilerr // unparseable places are excluded, not fatal
		}
		p.raw = numericPlace(f)
	}
	return nil
}

// numericPlace renders whole numbers such as 3 or 3.0 as integers. Fractions
// keep their text and are rejected by Int.
func numericPlace(f json.Number) string {
	if n, err := f.Int64(); err == nil {
		return strconv.FormatInt(n, 10)
	}
	v, err := f.Float64()
	if err == nil && !math.IsInf(v, 0) && v == math.Trunc(v) && v >= 0 && v <= math.MaxInt32 {
		return strconv.Itoa(int(v))
	}
	return f.String()
}

// EventResult is one athlete's result in one event.
type EventResult struct {
	EventName         string  `json:"event_name"`
	Place             Place   `json:"place"`
	Points            float64 `json:"points"`
	Group             string  `json:"group,omitempty"`
	ParticipantsCount int     `json:"participants_count,omitempty"`
}

// EventList keeps events in publication order. JSON input may be an array of
// results or an object keyed by event name; output is always an array.
type EventList []EventResult

// UnmarshalJSON decodes both the array and the keyed-object forms.
func (l *EventList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var items []EventResult
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var keyed map[string]EventResult
	if err := json.Unmarshal(b, &keyed); err != nil {
		return err
	}
	names := make([]string, 0, len(keyed))
	for name := range keyed {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(EventList, 0, len(keyed))
	for _, name := range names {
		ev := keyed[name]
		if ev.EventName == "" {
			ev.EventName = name
		}
		out = append(out, ev)
	}
	*l = out
	return nil
}

// YearRecord holds the events an athlete took part in during one year.
type YearRecord struct {
	YearTotalPoints float64   `json:"year_total_points"`
	Events          EventList `json:"events"`
}

// Years maps a four-digit year to that year's record.
type Years map[int]YearRecord

// UnmarshalJSON decodes an object keyed by year strings. Keys that are not
// integers are dropped.
func (y *Years) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*y = nil
		return nil
	}
	var raw map[string]YearRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Years, len(raw))
	for k, v := range raw {
		year, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		out[year] = v
	}
	*y = out
	return nil
}

// Sorted returns the years in ascending order.
func (y Years) Sorted() []int {
	out := make([]int, 0, len(y))
	for year := range y {
		out = append(out, year)
	}
	sort.Ints(out)
	return out
}

// Athlete is one row of a ranking.
type Athlete struct {
	Name        string  `json:"name"`
	Rank        int     `json:"rank"`
	Region      string  `json:"region"`
	SportRank   string  `json:"sport_rank,omitempty"`
	BirthYear   int     `json:"birthday,omitempty"`
	Category    string  `json:"category,omitempty"`
	LastYear    int     `json:"last_year,omitempty"`
	TotalPoints float64 `json:"total_points"`
	Years       Years   `json:"years,omitempty"`
}

// Surname returns the first word of the name.
func (a Athlete) Surname() string {
	parts := strings.Fields(a.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// FirstName returns the second word of the name.
func (a Athlete) FirstName() string {
	parts := strings.Fields(a.Name)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
