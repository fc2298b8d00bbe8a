package smoke

import (
	"fmt"

	"github.com/odinsy/topheats-rating/internal/adapters/http/api"
	"github.com/odinsy/topheats-rating/internal/domain/bestresult"
)

// verifyOrder checks that ranked athletes come first in ascending rank order
// and that count matches the athletes served.
func verifyOrder(r ranking) []string {
	var problems []string
	if r.Count != len(r.Athletes) {
		problems = append(problems, fmt.Sprintf("count %d, athletes %d", r.Count, len(r.Athletes)))
	}
	prev, unranked := 0, false
	for i, a := range r.Athletes {
		if a.Rank <= 0 {
			unranked = true
			continue
		}
		if unranked {
			problems = append(problems, fmt.Sprintf("athlete %d (%s) ranked %d after unranked athletes", i, a.Name, a.Rank))
		}
		if a.Rank < prev {
			problems = append(problems, fmt.Sprintf("athlete %d (%s) rank %d below previous %d", i, a.Name, a.Rank, prev))
		}
		prev = a.Rank
	}
	return problems
}

// verifyAthlete recomputes the best result from the athlete's years and
// compares it with what the server reports.
func verifyAthlete(a athlete) []string {
	var problems []string
	want := bestresult.Select(a.Years)
	if want != a.Best {
		problems = append(problems, fmt.Sprintf("%s: best result %s, expected %s", a.Name, api.BestLabel(a.Best), api.BestLabel(want)))
	}
	if label := api.BestLabel(a.Best); label != a.BestLabel {
		problems = append(problems, fmt.Sprintf("%s: label %q, expected %q", a.Name, a.BestLabel, label))
	}
	return problems
}
