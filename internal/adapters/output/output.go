// Package output writes generated ratings as CSV, JSON and console tables.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/internal/domain/ranking"
)

// Column names accepted in output.columns.
const (
	ColRank        = "Rank"
	ColName        = "Name"
	ColSportRank   = "Sport Rank"
	ColBirthday    = "Birthday"
	ColRegion      = "Region"
	ColCategory    = "Category"
	ColYearScores  = "YearScores"
	ColTotalPoints = "Total Points"
)

// DefaultColumns is used when no columns are configured.
var DefaultColumns = []string{
	ColRank, ColName, ColSportRank, ColBirthday, ColRegion, ColCategory, ColYearScores, ColTotalPoints,
}

var translations = map[string]string{
	ColRank:        "Место",
	ColName:        "ФИО",
	ColSportRank:   "Разряд",
	ColBirthday:    "Год рождения",
	ColRegion:      "Регион",
	ColCategory:    "Категория",
	ColTotalPoints: "Всего очков",
}

// Table is a rating laid out by columns.
type Table struct {
	columns []string
	years   []int
	Headers []string
}

// NewTable lays out columns. YearScores expands to one column per year.
func NewTable(columns []string, years []int, translate bool) Table {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	t := Table{columns: columns, years: years}
	for _, c := range columns {
		if c == ColYearScores {
			for _, y := range years {
				t.Headers = append(t.Headers, strconv.Itoa(y))
			}
			continue
		}
		if tr, ok := translations[c]; ok && translate {
			c = tr
		}
		t.Headers = append(t.Headers, c)
	}
	return t
}

// Row formats one athlete in column order.
func (t Table) Row(a model.Athlete) []string {
	var out []string
	for _, c := range t.columns {
		switch c {
		case ColRank:
			out = append(out, strconv.Itoa(a.Rank))
		case ColName:
			out = append(out, a.Name)
		case ColSportRank:
			out = append(out, a.SportRank)
		case ColBirthday:
			out = append(out, strconv.Itoa(a.BirthYear))
		case ColRegion:
			out = append(out, a.Region)
		case ColCategory:
			out = append(out, a.Category)
		case ColYearScores:
			for _, y := range t.years {
				out = append(out, formatPoints(a.Years[y].YearTotalPoints))
			}
		case ColTotalPoints:
			out = append(out, formatPoints(a.TotalPoints))
		default:
			out = append(out, "")
		}
	}
	return out
}

// AthletesDocument builds the full athletes document.
func AthletesDocument(headers []string, entries []ranking.Entry) model.AthletesDocument {
	doc := model.AthletesDocument{Headers: headers, Athletes: make([]model.AthleteSummary, 0, len(entries))}
	for _, e := range entries {
		doc.Athletes = append(doc.Athletes, model.AthleteSummary{Athlete: e.Athlete, BestResult: e.BestEvent()})
	}
	return doc
}

// RankingDocument builds the compact ranking document.
func RankingDocument(headers []string, entries []ranking.Entry, discipline, gender, lastUpdated string) model.RankingDocument {
	return model.RankingDocument{
		Headers: headers,
		Rankings: model.RankingData{
			Discipline:     discipline,
			Gender:         gender,
			LastUpdated:    lastUpdated,
			YearRankings:   ranking.YearRankings(entries),
			OverallRanking: ranking.Overall(entries),
		},
	}
}

// WriteJSON writes v as indented JSON. The file is replaced atomically so
// readers never see a partial document.
func WriteJSON(path string, v any) error {
	return writeFile(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
