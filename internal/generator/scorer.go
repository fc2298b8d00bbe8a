package generator

import (
	"fmt"
	"sort"

	"github.com/odinsy/topheats-rating/internal/config"
	"github.com/odinsy/topheats-rating/internal/domain/scoring"
)

// NewScorer builds the scorer described by cfg. Without configured tables
// the "default" system uses scoring.DefaultTable.
func NewScorer(cfg config.Generator) (*scoring.Scorer, error) {
	table, err := scoringTable(cfg)
	if err != nil {
		return nil, err
	}
	bonuses, err := scoringBonuses(cfg.Bonuses)
	if err != nil {
		return nil, err
	}
	return scoring.NewScorer(table,
		scoring.WithGroups(eventGroups(cfg.EventGroups)),
		scoring.WithBonuses(bonuses),
		scoring.WithCurrentYear(cfg.CurrentYear),
	), nil
}

func scoringTable(cfg config.Generator) (scoring.Table, error) {
	raw, ok := cfg.Scoring[cfg.ScoringSystem]
	if !ok {
		if cfg.ScoringSystem == "" || cfg.ScoringSystem == scoring.DefaultGroup {
			return scoring.DefaultTable(), nil
		}
		return scoring.Table{}, fmt.Errorf("%w: scoring system %q", ErrUnknownScoring, cfg.ScoringSystem)
	}
	return scoring.ParseTable(raw)
}

// eventGroups orders groups by Order, then name, so matching is stable.
func eventGroups(groups map[string]config.EventGroup) []scoring.Group {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := groups[names[i]], groups[names[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return names[i] < names[j]
	})

	out := make([]scoring.Group, 0, len(names))
	for _, name := range names {
		g := groups[name]
		coeff := g.Coefficient
		if coeff == 0 {
			coeff = 1
		}
		out = append(out, scoring.Group{Name: name, Coefficient: coeff, Patterns: g.Events})
	}
	return out
}

func scoringBonuses(b config.Bonuses) (scoring.Bonuses, error) {
	rules := make([]scoring.ParticipantRule, 0, len(b.ParticipantFactor.Rules))
	for i, r := range b.ParticipantFactor.Rules {
		limit, err := r.MaxValue()
		if err != nil {
			return scoring.Bonuses{}, fmt.Errorf("participant rule %d: %w", i, err)
		}
		rules = append(rules, scoring.ParticipantRule{Min: r.Min, Max: limit, Factor: r.Factor})
	}
	return scoring.Bonuses{
		ParticipantFactor:   b.ParticipantFactor.Enabled,
		ParticipantRules:    rules,
		Decay:               b.Decay.Enabled,
		DecayFactor:         b.Decay.Factor,
		Participation:       b.Participation.Enabled,
		ParticipationPoints: b.Participation.Points,
		Rank:                b.Rank.Enabled,
		RankValues:          b.Rank.Values,
	}, nil
}
