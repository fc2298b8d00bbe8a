package api

import (
	"fmt"
	"time"

	"github.com/odinsy/topheats-rating/internal/domain/avatar"
	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// NoDataLabel is shown when an athlete has no valid placement.
const NoDataLabel = "Нет данных"

// BestLabel renders a best result as "<place> в <year>".
func BestLabel(b model.BestResult) string {
	if b.IsNoData() {
		return NoDataLabel
	}
	return fmt.Sprintf("%d в %d", b.Place, b.Year)
}

type athleteView struct {
	Rank        int              `json:"rank"`
	Name        string           `json:"name"`
	Region      string           `json:"region"`
	SportRank   string           `json:"sport_rank,omitempty"`
	BirthYear   int              `json:"birthday,omitempty"`
	Category    string           `json:"category,omitempty"`
	LastYear    int              `json:"last_year,omitempty"`
	TotalPoints float64          `json:"total_points"`
	Best        model.BestResult `json:"best_result"`
	BestLabel   string           `json:"best_result_label"`
	Avatar      string           `json:"avatar"`
	Initials    string           `json:"initials"`
	Years       model.Years      `json:"years,omitempty"`
}

type rankingView struct {
	ID          string        `json:"id"`
	Competition string        `json:"competition"`
	Organizer   string        `json:"organizer"`
	Discipline  string        `json:"discipline"`
	Gender      string        `json:"gender"`
	LastUpdated string        `json:"last_updated,omitempty"`
	LoadedAt    time.Time     `json:"loaded_at"`
	Years       []int         `json:"years"`
	Count       int           `json:"count"`
	Athletes    []athleteView `json:"athletes"`
}

type topView struct {
	ID       string        `json:"id"`
	Athletes []athleteView `json:"athletes"`
}

func newAthleteView(a model.RankedAthlete, avatarPrefix string, withYears bool) athleteView {
	v := athleteView{
		Rank:        a.Rank,
		Name:        a.Name,
		Region:      a.Region,
		SportRank:   a.SportRank,
		BirthYear:   a.BirthYear,
		Category:    a.Category,
		LastYear:    a.LastYear,
		TotalPoints: a.TotalPoints,
		Best:        a.Best,
		BestLabel:   BestLabel(a.Best),
		Avatar:      avatar.Path(avatarPrefix, a.Name),
		Initials:    avatar.Initials(a.Name),
	}
	if withYears {
		v.Years = a.Years
	}
	return v
}

func newAthleteViews(list []model.RankedAthlete, avatarPrefix string) []athleteView {
	out := make([]athleteView, len(list))
	for i, a := range list {
		out[i] = newAthleteView(a, avatarPrefix, false)
	}
	return out
}

func newRankingView(r model.Ranking, avatarPrefix string) rankingView {
	years := r.Years
	if years == nil {
		years = []int{}
	}
	return rankingView{
		ID:          r.Entry.ID,
		Competition: r.Entry.Competition,
		Organizer:   r.Entry.Organizer,
		Discipline:  r.Discipline,
		Gender:      r.Gender,
		LastUpdated: r.LastUpdated,
		LoadedAt:    r.LoadedAt,
		Years:       years,
		Count:       len(r.Athletes),
		Athletes:    newAthleteViews(r.Athletes, avatarPrefix),
	}
}
