package output

import (
	"sort"

	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/internal/domain/ranking"
)

// Participant is one athlete entered in an event.
type Participant struct {
	Name      string `json:"name"`
	Place     string `json:"place"`
	Region    string `json:"region"`
	BirthYear int    `json:"birth_year"`
	SportRank string `json:"sport_rank"`
}

// EventSummary describes one event and everyone entered in it.
type EventSummary struct {
	EventYear          int           `json:"event_year"`
	EventName          string        `json:"event_name"`
	Category           string        `json:"category"`
	TotalParticipants  int           `json:"total_participants"`
	ActualParticipants int           `json:"actual_participants"`
	DNSCount           int           `json:"dns_count"`
	Participants       []Participant `json:"participants"`
}

// EventsDocument is the events summary file.
type EventsDocument struct {
	Events            []EventSummary `json:"events"`
	TotalEvents       int            `json:"total_events"`
	TotalParticipants int            `json:"total_participants"`
}

type summaryKey struct {
	year     int
	event    string
	category string
}

// Events groups results by year, event and category, ordered by year then
// event name.
func Events(results []ranking.Result) EventsDocument {
	byKey := make(map[summaryKey]*EventSummary)
	for _, r := range results {
		k := summaryKey{r.Year, r.Event, r.Category}
		ev, ok := byKey[k]
		if !ok {
			ev = &EventSummary{EventYear: r.Year, EventName: r.Event, Category: r.Category}
			byKey[k] = ev
		}
		ev.Participants = append(ev.Participants, Participant{
			Name:      r.Name,
			Place:     r.Place,
			Region:    r.Region,
			BirthYear: r.BirthYear,
			SportRank: r.SportRank,
		})
		ev.TotalParticipants++
		if model.NewPlace(r.Place).IsDNS() {
			ev.DNSCount++
		} else {
			ev.ActualParticipants++
		}
	}

	doc := EventsDocument{Events: make([]EventSummary, 0, len(byKey))}
	for _, ev := range byKey {
		doc.Events = append(doc.Events, *ev)
		doc.TotalParticipants += ev.TotalParticipants
	}
	sort.Slice(doc.Events, func(i, j int) bool {
		a, b := doc.Events[i], doc.Events[j]
		if a.EventYear != b.EventYear {
			return a.EventYear < b.EventYear
		}
		if a.EventName != b.EventName {
			return a.EventName < b.EventName
		}
		return a.Category < b.Category
	})
	doc.TotalEvents = len(doc.Events)
	return doc
}
