// Package scoring turns a placement into rating points: base points from a
// scoring table scaled by the event group coefficient, followed by the
// participant factor, age decay and participation bonus.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultGroup is the event group used when no pattern matches.
const DefaultGroup = "default"

const keyDNS = "DNS"

// ErrInvalidTable is returned when a scoring table key cannot be parsed.
var ErrInvalidTable = errors.New("invalid scoring table")

// Range assigns points to every place in [Min, Max].
type Range struct {
	Min    int
	Max    int
	Points float64
}

// Table maps places to base points.
type Table struct {
	exact  map[int]float64
	ranges []Range
	dns    float64
}

// ParseTable builds a Table from config keys: "N" for a single place, "A-B"
// for an inclusive range and "DNS" for registered athletes who did not start.
func ParseTable(raw map[string]float64) (Table, error) {
	t := Table{exact: make(map[int]float64)}
	for key, points := range raw {
		k := strings.TrimSpace(key)
		switch {
		case strings.EqualFold(k, keyDNS):
			t.dns = points
		case strings.Contains(k, "-"):
			lo, hi, ok := strings.Cut(k, "-")
			if !ok {
				return Table{}, fmt.Errorf("%w: key %q", ErrInvalidTable, key)
			}
			a, err1 := strconv.Atoi(strings.TrimSpace(lo))
			b, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || a > b {
				return Table{}, fmt.Errorf("%w: key %q", ErrInvalidTable, key)
			}
			t.ranges = append(t.ranges, Range{Min: a, Max: b, Points: points})
		default:
			n, err := strconv.Atoi(k)
			if err != nil {
				return Table{}, fmt.Errorf("%w: key %q", ErrInvalidTable, key)
			}
			t.exact[n] = points
		}
	}
	sort.Slice(t.ranges, func(i, j int) bool { return t.ranges[i].Min < t.ranges[j].Min })
	return t, nil
}

// MustParseTable is ParseTable for tables known to be valid.
func MustParseTable(raw map[string]float64) Table {
	t, err := ParseTable(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTable is used when the configuration carries no scoring table.
func DefaultTable() Table {
	return MustParseTable(map[string]float64{
		"1": 100, "2": 80, "3": 65, "4": 55,
		"5-8": 40, "9-16": 25, "17-32": 10, "DNS": 0,
	})
}

// Lookup returns the points for a numeric place. Exact keys win over ranges.
func (t Table) Lookup(place int) (float64, bool) {
	if v, ok := t.exact[place]; ok {
		return v, true
	}
	for _, r := range t.ranges {
		if place >= r.Min && place <= r.Max {
			return r.Points, true
		}
	}
	return 0, false
}

// DNS returns the points for did-not-start entries.
func (t Table) DNS() float64 { return t.dns }

// Group is a named set of events sharing a coefficient. An event belongs to
// the group if any pattern is a substring of its name.
type Group struct {
	Name        string
	Coefficient float64
	Patterns    []string
}

// ParticipantRule scales points for events with Min..Max participants.
// Max <= 0 means no upper bound.
type ParticipantRule struct {
	Min    int
	Max    int
	Factor float64
}

// Bonuses holds the optional adjustments applied after base points.
type Bonuses struct {
	ParticipantFactor   bool
	ParticipantRules    []ParticipantRule
	Decay               bool
	DecayFactor         float64
	Participation       bool
	ParticipationPoints float64
	Rank                bool
	RankValues          map[string]float64
}

// Input is one athlete result to score.
type Input struct {
	Place        string
	Group        string
	Participants int
	Year         int
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithGroups sets the event groups. Groups are matched in the given order.
func WithGroups(groups []Group) Option {
	return func(s *Scorer) {
		s.groups = make([]Group, 0, len(groups))
		for _, g := range groups {
			if g.Name == "" {
				continue
			}
			s.groups = append(s.groups, g)
		}
	}
}

// WithBonuses sets the bonus rules.
func WithBonuses(b Bonuses) Option {
	return func(s *Scorer) {
		s.bonuses = b
	}
}

// WithCurrentYear sets the reference year for decay.
func WithCurrentYear(year int) Option {
	return func(s *Scorer) {
		if year > 0 {
			s.currentYear = year
		}
	}
}

// Scorer computes event points for one scoring system.
type Scorer struct {
	table       Table
	groups      []Group
	bonuses     Bonuses
	currentYear int
}

// NewScorer creates a scorer over the given table.
func NewScorer(table Table, opts ...Option) *Scorer {
	s := &Scorer{table: table}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Group returns the name of the first group with a pattern contained in the
// event name, or DefaultGroup.
func (s *Scorer) Group(eventName string) string {
	for _, g := range s.groups {
		for _, p := range g.Patterns {
			if p != "" && strings.Contains(eventName, p) {
				return g.Name
			}
		}
	}
	return DefaultGroup
}

// Coefficient returns the multiplier of a group. Unknown groups and the
// unconfigured default group use 1.
func (s *Scorer) Coefficient(group string) float64 {
	for _, g := range s.groups {
		if g.Name == group {
			return g.Coefficient
		}
	}
	return 1
}

// BasePoints returns the table points of a place scaled by the group
// coefficient. Places other than numbers and "DNS" score zero.
func (s *Scorer) BasePoints(place, group string) float64 {
	coeff := s.Coefficient(group)
	if strings.EqualFold(place, keyDNS) {
		return round(s.table.DNS() * coeff)
	}
	n, err := strconv.Atoi(place)
	if err != nil {
		return 0
	}
	v, ok := s.table.Lookup(n)
	if !ok {
		return 0
	}
	return round(v * coeff)
}

// ParticipantFactor applies the first rule covering the participant count.
func (s *Scorer) ParticipantFactor(points float64, participants int) float64 {
	if !s.bonuses.ParticipantFactor {
		return points
	}
	for _, r := range s.bonuses.ParticipantRules {
		if participants >= r.Min && (r.Max <= 0 || participants <= r.Max) {
			return round(points * r.Factor)
		}
	}
	return points
}

// Decay scales points by factor^(currentYear-year).
func (s *Scorer) Decay(points float64, year int) float64 {
	if !s.bonuses.Decay {
		return points
	}
	return round(points * math.Pow(s.bonuses.DecayFactor, float64(s.currentYear-year)))
}

// ParticipationBonus adds the fixed bonus for athletes who started.
func (s *Scorer) ParticipationBonus(points float64, dns bool) float64 {
	if dns || !s.bonuses.Participation {
		return points
	}
	return points + s.bonuses.ParticipationPoints
}

// RankBonus adds the bonus for the athlete's sport rank to a total.
func (s *Scorer) RankBonus(total float64, sportRank string) float64 {
	if !s.bonuses.Rank {
		return total
	}
	return total + s.bonuses.RankValues[sportRank]
}

// EventPoints runs the full pipeline for one result.
func (s *Scorer) EventPoints(in Input) float64 {
	points := s.BasePoints(in.Place, in.Group)
	points = s.ParticipantFactor(points, in.Participants)
	points = s.Decay(points, in.Year)
	return s.ParticipationBonus(points, strings.EqualFold(in.Place, keyDNS))
}

// round rounds half to even, matching the published ratings.
func round(v float64) float64 { return math.RoundToEven(v) }
