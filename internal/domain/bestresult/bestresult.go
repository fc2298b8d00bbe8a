// Package bestresult picks the single most noteworthy placement of an athlete
// across all years of competition.
package bestresult

import (
	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// Detailed is a best result together with the event it was achieved at.
type Detailed struct {
	model.BestResult
	EventName string
	Points    float64
}

// Select returns the lowest valid place over all years. Equal places are
// resolved in favour of the most recent year. Events whose place is not a
// non-negative integer are ignored; if nothing remains the result is
// model.NoData.
func Select(years model.Years) model.BestResult {
	best := model.NoData
	for year, rec := range years {
		place, ok := yearBest(rec.Events)
		if !ok {
			continue
		}
		if better(place, year, best) {
			best = model.NewBestResult(place, year)
		}
	}
	return best
}

// SelectDetailed runs the same selection as Select and also reports the
// event. Within the winning year, ties on place go to the higher points, then
// to the event name that sorts first.
func SelectDetailed(years model.Years) Detailed {
	best := Select(years)
	if best.IsNoData() {
		return Detailed{BestResult: best}
	}

	out := Detailed{BestResult: best}
	found := false
	for _, ev := range years[best.Year].Events {
		place, ok := ev.Place.Int()
		if !ok || place != best.Place {
			continue
		}
		if !found || ev.Points > out.Points || (ev.Points == out.Points && ev.EventName < out.EventName) {
			out.EventName = ev.EventName
			out.Points = ev.Points
			found = true
		}
	}
	return out
}

func yearBest(events model.EventList) (int, bool) {
	best, found := 0, false
	for _, ev := range events {
		place, ok := ev.Place.Int()
		if !ok {
			continue
		}
		if !found || place < best {
			best, found = place, true
		}
	}
	return best, found
}

// better applies the replacement rule of the fold. Because it is a strict
// total order on (place asc, year desc), the outcome does not depend on map
// iteration order.
func better(place, year int, cur model.BestResult) bool {
	if cur.IsNoData() {
		return true
	}
	return place < cur.Place || (place == cur.Place && year > cur.Year)
}
