// Package anonymize replaces athlete names with stable opaque identifiers.
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/odinsy/topheats-rating/internal/domain/model"
)

const prefix = "athlete_"

// ID returns "athlete_" followed by the first 12 hex digits of the SHA-256 of
// "surname_firstname_birthyear" in lower case. A zero birth year hashes as
// an empty string.
func ID(name string, birthYear int) string {
	parts := strings.Fields(name)
	var surname, first string
	if len(parts) > 0 {
		surname = parts[0]
	}
	if len(parts) > 1 {
		first = parts[1]
	}
	year := ""
	if birthYear != 0 {
		year = strconv.Itoa(birthYear)
	}
	sum := sha256.Sum256([]byte(strings.ToLower(surname + "_" + first + "_" + year)))
	return prefix + hex.EncodeToString(sum[:])[:12]
}

// Athlete returns a copy of a with the name replaced and birth year dropped.
func Athlete(a model.Athlete) model.Athlete {
	a.Name = ID(a.Name, a.BirthYear)
	a.BirthYear = 0
	return a
}

// Document anonymizes every athlete of a ranking document. Year rankings
// are keyed by the same identifiers as the overall ranking.
func Document(doc model.RankingDocument) model.RankingDocument {
	ids := make(map[string]string, len(doc.Rankings.OverallRanking))
	overall := make([]model.OverallEntry, len(doc.Rankings.OverallRanking))
	for i, e := range doc.Rankings.OverallRanking {
		id := ID(e.Name, e.BirthYear)
		ids[e.Name] = id
		e.Name = id
		e.BirthYear = 0
		overall[i] = e
	}

	years := make(map[string]model.YearRanking, len(doc.Rankings.YearRankings))
	for year, yr := range doc.Rankings.YearRankings {
		entries := make([]model.YearRankingEntry, len(yr.Athletes))
		for i, e := range yr.Athletes {
			if id, ok := ids[e.Name]; ok {
				e.Name = id
			} else {
				e.Name = ID(e.Name, 0)
			}
			entries[i] = e
		}
		years[year] = model.YearRanking{Athletes: entries}
	}

	doc.Rankings.OverallRanking = overall
	doc.Rankings.YearRankings = years
	return doc
}
