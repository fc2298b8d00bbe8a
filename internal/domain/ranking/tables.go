package ranking

import (
	"sort"
	"strconv"

	"github.com/odinsy/topheats-rating/internal/domain/bestresult"
	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// Overall converts entries to the overall ranking table.
func Overall(entries []Entry) []model.OverallEntry {
	out := make([]model.OverallEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.OverallEntry{
			Rank:              e.Rank,
			Name:              e.Name,
			Region:            e.Region,
			SportRank:         e.SportRank,
			BirthYear:         e.BirthYear,
			TotalPoints:       e.TotalPoints,
			BestResult:        e.BestEvent(),
			LastYear:          e.LastYear,
			YearsParticipated: e.Years.Sorted(),
		})
	}
	return out
}

// YearRankings ranks athletes by the points of each year. Equal points share
// a rank and the next rank skips accordingly (1, 1, 3).
func YearRankings(entries []Entry) map[string]model.YearRanking {
	byYear := make(map[int][]model.YearRankingEntry)
	for _, e := range entries {
		for year, rec := range e.Years {
			byYear[year] = append(byYear[year], model.YearRankingEntry{
				Name:        e.Name,
				YearPoints:  rec.YearTotalPoints,
				TotalPoints: e.TotalPoints,
				Events:      rec.Events,
			})
		}
	}

	out := make(map[string]model.YearRanking, len(byYear))
	for year, list := range byYear {
		sort.SliceStable(list, func(i, j int) bool { return list[i].YearPoints > list[j].YearPoints })
		rank := 0
		for i := range list {
			if i == 0 || list[i].YearPoints != list[i-1].YearPoints {
				rank = i + 1
			}
			list[i].Rank = rank
		}
		out[strconv.Itoa(year)] = model.YearRanking{Athletes: list}
	}
	return out
}

// Prepare orders a decoded document by rank and attaches the best result of
// every athlete. Athletes without a positive rank keep their relative order
// after the ranked ones. It also reports how many athletes have no data.
func Prepare(doc model.Document) ([]model.RankedAthlete, int) {
	out := make([]model.RankedAthlete, len(doc.Athletes))
	noData := 0
	for i, a := range doc.Athletes {
		best := bestresult.Select(a.Years)
		if best.IsNoData() {
			noData++
		}
		out[i] = model.RankedAthlete{Athlete: a, Best: best}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		switch {
		case ri <= 0:
			return false
		case rj <= 0:
			return true
		default:
			return ri < rj
		}
	})
	return out, noData
}
