package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ErrUnknownDocument is returned when a JSON document carries neither an
// athletes list nor a rankings block.
var ErrUnknownDocument = errors.New("document has neither athletes nor rankings")

// BestEvent is the best placement as written by the generator, with the
// event it was achieved at.
type BestEvent struct {
	EventName string  `json:"event_name"`
	EventYear string  `json:"event_year"`
	Place     Place   `json:"place"`
	Points    float64 `json:"points"`
}

// AthletesDocument is the full ranking file: every athlete with per-year events.
type AthletesDocument struct {
	Headers  []string         `json:"headers"`
	Athletes []AthleteSummary `json:"athletes"`
}

// AthleteSummary is an athlete row together with the generator's best result.
type AthleteSummary struct {
	Athlete
	BestResult *BestEvent `json:"best_result"`
}

// RankingDocument is the compact ranking file consumed by the index.
type RankingDocument struct {
	Headers  []string    `json:"headers"`
	Rankings RankingData `json:"rankings"`
}

// RankingData is the body of a RankingDocument.
type RankingData struct {
	Discipline     string                 `json:"discipline"`
	Gender         string                 `json:"gender"`
	LastUpdated    string                 `json:"last_updated"`
	YearRankings   map[string]YearRanking `json:"year_rankings"`
	OverallRanking []OverallEntry         `json:"overall_ranking"`
}

// OverallEntry is one athlete in the overall ranking.
type OverallEntry struct {
	Rank              int        `json:"rank"`
	Name              string     `json:"name"`
	Region            string     `json:"region"`
	SportRank         string     `json:"sport_rank"`
	BirthYear         int        `json:"birthday,omitempty"`
	TotalPoints       float64    `json:"total_points"`
	BestResult        *BestEvent `json:"best_result"`
	LastYear          int        `json:"last_year"`
	YearsParticipated []int      `json:"years_participated"`
}

// YearRanking lists athletes ranked by the points of one year.
type YearRanking struct {
	Athletes []YearRankingEntry `json:"athletes"`
}

// YearRankingEntry is one athlete in a YearRanking.
type YearRankingEntry struct {
	Rank        int       `json:"rank"`
	Name        string    `json:"name"`
	YearPoints  float64   `json:"year_points"`
	TotalPoints float64   `json:"total_points"`
	Events      EventList `json:"events"`
}

// Document is a decoded ranking in the shape the service works with,
// whichever file format it came from.
type Document struct {
	Discipline  string
	Gender      string
	LastUpdated string
	Athletes    []Athlete
}

// ParseDocument decodes either an AthletesDocument or a RankingDocument.
func ParseDocument(b []byte) (Document, error) {
	var probe struct {
		Athletes json.RawMessage `json:"athletes"`
		Rankings json.RawMessage `json:"rankings"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}

	switch {
	case present(probe.Athletes):
		var doc AthletesDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return Document{}, fmt.Errorf("decode athletes: %w", err)
		}
		out := Document{Athletes: make([]Athlete, len(doc.Athletes))}
		for i, a := range doc.Athletes {
			out.Athletes[i] = a.Athlete
		}
		return out, nil
	case present(probe.Rankings):
		var doc RankingDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return Document{}, fmt.Errorf("decode rankings: %w", err)
		}
		return fromRankingData(doc.Rankings), nil
	default:
		return Document{}, ErrUnknownDocument
	}
}

// fromRankingData rebuilds per-athlete years from the year rankings.
func fromRankingData(r RankingData) Document {
	years := make(map[string]Years, len(r.OverallRanking))
	for key, yr := range r.YearRankings {
		year, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		for _, e := range yr.Athletes {
			if years[e.Name] == nil {
				years[e.Name] = make(Years)
			}
			years[e.Name][year] = YearRecord{YearTotalPoints: e.YearPoints, Events: e.Events}
		}
	}

	doc := Document{
		Discipline:  r.Discipline,
		Gender:      r.Gender,
		LastUpdated: r.LastUpdated,
		Athletes:    make([]Athlete, 0, len(r.OverallRanking)),
	}
	for _, e := range r.OverallRanking {
		doc.Athletes = append(doc.Athletes, Athlete{
			Name:        e.Name,
			Rank:        e.Rank,
			Region:      e.Region,
			SportRank:   e.SportRank,
			BirthYear:   e.BirthYear,
			LastYear:    e.LastYear,
			TotalPoints: e.TotalPoints,
			Years:       years[e.Name],
		})
	}
	return doc
}

// IndexEntry describes one published ranking file.
type IndexEntry struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	Competition string `json:"competition"`
	Organizer   string `json:"organizer"`
	Discipline  string `json:"discipline"`
	Gender      string `json:"gender"`
}

// Index lists every published ranking.
type Index struct {
	LastUpdated string       `json:"last_updated"`
	Rankings    []IndexEntry `json:"rankings"`
}

// Ranking is a loaded ranking with best results attached, as served.
type Ranking struct {
	Entry       IndexEntry      `json:"entry"`
	Discipline  string          `json:"discipline,omitempty"`
	Gender      string          `json:"gender,omitempty"`
	LastUpdated string          `json:"last_updated,omitempty"`
	Years       []int           `json:"years"`
	Athletes    []RankedAthlete `json:"athletes"`
	LoadedAt    time.Time       `json:"loaded_at"`
}

// Athlete finds an athlete by exact name.
func (r Ranking) Athlete(name string) (RankedAthlete, bool) {
	for _, a := range r.Athletes {
		if a.Name == name {
			return a, true
		}
	}
	return RankedAthlete{}, false
}

// CollectYears returns every year present across athletes, ascending.
func CollectYears(athletes []Athlete) []int {
	seen := make(map[int]struct{})
	for _, a := range athletes {
		for year := range a.Years {
			seen[year] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for year := range seen {
		out = append(out, year)
	}
	sort.Ints(out)
	return out
}

// present reports whether a raw field was given a non-null value.
func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
