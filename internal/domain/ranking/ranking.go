// Package ranking aggregates individual results into athlete ratings.
package ranking

import (
	"sort"
	"strconv"

	"github.com/odinsy/topheats-rating/internal/domain/bestresult"
	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/internal/domain/scoring"
)

// noPlace sorts athletes without a numeric best place after everyone else.
const noPlace = 9999

// Result is one athlete's placement in one event.
type Result struct {
	Year      int
	Event     string
	Name      string
	BirthYear int
	Region    string
	SportRank string
	Place     string
	Category  string
}

// Options controls filtering and ordering in Build.
type Options struct {
	// AllowedGroups keeps only events of these groups. Empty keeps all.
	AllowedGroups []string
	// AllowedYears keeps only these years. Empty keeps all.
	AllowedYears []int
	// Sorting enables tie-breaking on best place, last year and best year.
	Sorting bool
}

// Entry is a rated athlete with the event of its best placement.
type Entry struct {
	model.Athlete
	Best bestresult.Detailed
}

// BestEvent returns the best placement in its published form, or nil.
func (e Entry) BestEvent() *model.BestEvent {
	if e.Best.IsNoData() {
		return nil
	}
	return &model.BestEvent{
		EventName: e.Best.EventName,
		EventYear: strconv.Itoa(e.Best.Year),
		Place:     model.PlaceOf(e.Best.Place),
		Points:    e.Best.Points,
	}
}

// Stats describes what Build did with its input.
type Stats struct {
	Results        int
	FilteredEvents int
	Athletes       int
}

type eventKey struct {
	year  int
	event string
}

type pending struct {
	name       string
	birthYear  int
	category   string
	regions    map[int]string
	sportRanks map[int]string
	years      map[int]*yearEvents
}

type yearEvents struct {
	order []string
	byKey map[string]model.EventResult
}

func (y *yearEvents) put(ev model.EventResult) {
	if _, ok := y.byKey[ev.EventName]; !ok {
		y.order = append(y.order, ev.EventName)
	}
	y.byKey[ev.EventName] = ev
}

// Build groups results by athlete, scores every event and returns athletes
// ordered by total points with ranks 1..N assigned. When the same athlete
// appears twice in an event, the later result wins.
func Build(results []Result, s *scoring.Scorer, opts Options) ([]Entry, Stats) {
	stats := Stats{Results: len(results)}
	allowedGroups := toSet(opts.AllowedGroups)
	allowedYears := toIntSet(opts.AllowedYears)

	var order []string
	athletes := make(map[string]*pending)
	participants := make(map[eventKey]map[string]struct{})

	for _, r := range results {
		group := s.Group(r.Event)
		if len(allowedGroups) > 0 {
			if _, ok := allowedGroups[group]; !ok {
				stats.FilteredEvents++
				continue
			}
		}

		place := model.NewPlace(r.Place)
		if !place.IsDNS() {
			k := eventKey{r.Year, r.Event}
			if participants[k] == nil {
				participants[k] = make(map[string]struct{})
			}
			participants[k][r.Name] = struct{}{}
		}

		a, ok := athletes[r.Name]
		if !ok {
			a = &pending{
				name:       r.Name,
				regions:    make(map[int]string),
				sportRanks: make(map[int]string),
				years:      make(map[int]*yearEvents),
			}
			athletes[r.Name] = a
			order = append(order, r.Name)
		}
		y, ok := a.years[r.Year]
		if !ok {
			y = &yearEvents{byKey: make(map[string]model.EventResult)}
			a.years[r.Year] = y
		}
		y.put(model.EventResult{EventName: r.Event, Place: place, Group: group})
		a.regions[r.Year] = r.Region
		a.sportRanks[r.Year] = r.SportRank
		a.birthYear = r.BirthYear
		a.category = r.Category
	}

	entries := make([]Entry, 0, len(order))
	for _, name := range order {
		entries = append(entries, score(athletes[name], s, participants, allowedYears))
	}
	sortEntries(entries, opts.Sorting)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	stats.Athletes = len(entries)
	return entries, stats
}

func score(p *pending, s *scoring.Scorer, participants map[eventKey]map[string]struct{}, allowedYears map[int]struct{}) Entry {
	a := model.Athlete{
		Name:      p.name,
		BirthYear: p.birthYear,
		Category:  p.category,
		Region:    latest(p.regions),
		SportRank: latest(p.sportRanks),
		Years:     make(model.Years),
	}

	var total float64
	for year, y := range p.years {
		if len(allowedYears) > 0 {
			if _, ok := allowedYears[year]; !ok {
				continue
			}
		}
		rec := model.YearRecord{Events: make(model.EventList, 0, len(y.order))}
		for _, name := range y.order {
			ev := y.byKey[name]
			ev.ParticipantsCount = len(participants[eventKey{year, name}])
			ev.Points = s.EventPoints(scoring.Input{
				Place:        ev.Place.String(),
				Group:        ev.Group,
				Participants: ev.ParticipantsCount,
				Year:         year,
			})
			rec.YearTotalPoints += ev.Points
			rec.Events = append(rec.Events, ev)
		}
		a.Years[year] = rec
		total += rec.YearTotalPoints
		if year > a.LastYear {
			a.LastYear = year
		}
	}
	a.TotalPoints = s.RankBonus(total, a.SportRank)
	return Entry{Athlete: a, Best: bestresult.SelectDetailed(a.Years)}
}

func sortEntries(entries []Entry, tieBreak bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if !tieBreak {
			return false
		}
		if pa, pb := bestPlace(a), bestPlace(b); pa != pb {
			return pa < pb
		}
		if a.LastYear != b.LastYear {
			return a.LastYear > b.LastYear
		}
		return a.Best.Year > b.Best.Year
	})
}

func bestPlace(e Entry) int {
	if e.Best.IsNoData() {
		return noPlace
	}
	return e.Best.Place
}

// latest returns the value recorded for the most recent year.
func latest(byYear map[int]string) string {
	best, out := 0, ""
	first := true
	for year, v := range byYear {
		if first || year > best {
			best, out, first = year, v, false
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func toIntSet(values []int) map[int]struct{} {
	out := make(map[int]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
