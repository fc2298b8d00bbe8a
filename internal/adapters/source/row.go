// Package source reads competition results from CSV and HTML tables.
package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Column names of a results table.
const (
	ColYear      = "Год"
	ColEvent     = "Событие"
	ColDate      = "Дата"
	ColName      = "ФИО"
	ColBirthYear = "Год рождения"
	ColRegion    = "Регион"
	ColSportRank = "Разряд"
	ColPlace     = "Место"
	ColCategory  = "Категория"
)

// RequiredColumns must be present in every results table.
var RequiredColumns = []string{ColYear, ColEvent, ColName, ColBirthYear, ColRegion, ColSportRank, ColPlace}

// Skip reasons reported in File.Skipped.
const (
	SkipBadYear   = "bad_year"
	SkipNoName    = "no_name"
	SkipNoEvent   = "no_event"
	SkipShortLine = "short_line"
)

// Row is one athlete result.
type Row struct {
	Year      int
	Event     string
	Date      string
	Name      string
	BirthYear int
	Region    string
	SportRank string
	Place     string
	Category  string
}

// File is the parsed content of one input file.
type File struct {
	Path    string
	Rows    []Row
	Skipped map[string]int
}

func (f *File) skip(reason string) {
	if f.Skipped == nil {
		f.Skipped = make(map[string]int)
	}
	f.Skipped[reason]++
}

// header maps column names to their position.
type header map[string]int

func newHeader(cells []string) header {
	h := make(header, len(cells))
	for i, c := range cells {
		c = clean(strings.TrimPrefix(c, "\ufeff"))
		if _, dup := h[c]; !dup {
			h[c] = i
		}
	}
	return h
}

func (h header) missing() []string {
	var out []string
	for _, c := range RequiredColumns {
		if _, ok := h[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func (h header) get(cells []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return clean(cells[i])
}

// parseRow converts table cells into a Row. The second result is a skip
// reason when the row is unusable.
func (h header) parseRow(cells []string) (Row, string) {
	if len(cells) < len(RequiredColumns) {
		return Row{}, SkipShortLine
	}
	year, err := strconv.Atoi(h.get(cells, ColYear))
	if err != nil {
		return Row{}, SkipBadYear
	}
	r := Row{
		Year:      year,
		Event:     h.get(cells, ColEvent),
		Date:      h.get(cells, ColDate),
		Name:      ShortName(h.get(cells, ColName)),
		BirthYear: BirthYear(h.get(cells, ColBirthYear)),
		Region:    h.get(cells, ColRegion),
		SportRank: h.get(cells, ColSportRank),
		Place:     strings.ToUpper(h.get(cells, ColPlace)),
		Category:  h.get(cells, ColCategory),
	}
	switch {
	case r.Name == "":
		return Row{}, SkipNoName
	case r.Event == "":
		return Row{}, SkipNoEvent
	}
	return r, ""
}

// clean trims a cell and brings it to NFC so that names typed with combining
// marks (й, ё) compare equal to precomposed ones.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ShortName keeps the first two words of a full name.
func ShortName(full string) string {
	parts := strings.Fields(full)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, " ")
}

var (
	birthLayouts = []string{"02.01.2006", "2006-01-02", "02/01/2006", "2.1.2006"}
	fourDigits   = regexp.MustCompile(`\b\d{4}\b`)
)

// BirthYear extracts a year from a date of birth, or from the first
// four-digit group. It returns 0 when nothing matches.
func BirthYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range birthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year()
		}
	}
	if m := fourDigits.FindString(s); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 0
}
