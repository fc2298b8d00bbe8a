// Package index builds the list of published ranking files.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/odinsy/topheats-rating/internal/adapters/output"
	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// FileName is the index document written at the root.
const FileName = "index.json"

const (
	filePrefix = "ranking_"
	fileSuffix = ".json"

	genderMen  = "men"
	labelMen   = "Мужчины"
	labelWomen = "Женщины"
	timeLayout = "2006-01-02T15:04:05.000000"
)

var disciplineNames = map[string]string{
	"shortboard":  "Короткая доска",
	"longboard":   "Длинная доска",
	"wakeskim":    "Вейкским",
	"wakesurfing": "Вейксерфинг",
}

// DisciplineName returns the display name of a discipline directory.
func DisciplineName(dir string) string {
	if name, ok := disciplineNames[dir]; ok {
		return name
	}
	return dir
}

// GenderLabel returns the display label for a gender file suffix.
func GenderLabel(gender string) string {
	if gender == genderMen {
		return labelMen
	}
	return labelWomen
}

// Scan walks root for <organizer>/<competition>/<discipline>/ranking_<gender>.json
// files and returns their entries ordered by path.
func Scan(root string) ([]model.IndexEntry, error) {
	var out []model.IndexEntry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		out = append(out, Entry(parts[0], parts[1], parts[2], name))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Entry describes one ranking file.
func Entry(organizer, competition, discipline, fileName string) model.IndexEntry {
	gender := strings.TrimSuffix(strings.TrimPrefix(fileName, filePrefix), fileSuffix)
	return model.IndexEntry{
		ID:          strings.Join([]string{organizer, competition, discipline, gender}, "_"),
		Path:        path.Join(organizer, competition, discipline, fileName),
		Competition: titleCase(strings.ReplaceAll(competition, "_", " ")),
		Organizer:   strings.ToUpper(organizer),
		Discipline:  DisciplineName(discipline),
		Gender:      GenderLabel(gender),
	}
}

// Generate scans root and writes root/index.json.
func Generate(root string, now time.Time) (model.Index, error) {
	entries, err := Scan(root)
	if err != nil {
		return model.Index{}, err
	}
	idx := model.Index{
		LastUpdated: now.UTC().Format(timeLayout) + "Z",
		Rankings:    entries,
	}
	if idx.Rankings == nil {
		idx.Rankings = []model.IndexEntry{}
	}
	if err := output.WriteJSON(filepath.Join(root, FileName), idx); err != nil {
		return model.Index{}, err
	}
	return idx, nil
}

// ErrInvalidIndex is returned when an index document cannot be decoded.
var ErrInvalidIndex = errors.New("invalid index")

// Read decodes an index document.
func Read(r io.Reader) (model.Index, error) {
	var idx model.Index
	if err := json.NewDecoder(r).Decode(&idx); err != nil {
		return model.Index{}, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	for i, e := range idx.Rankings {
		if e.ID == "" || e.Path == "" {
			return model.Index{}, fmt.Errorf("%w: entry %d has no id or path", ErrInvalidIndex, i)
		}
	}
	return idx, nil
}

// ReadFile decodes the index at path.
func ReadFile(p string) (model.Index, error) {
	f, err := os.Open(p)
	if err != nil {
		return model.Index{}, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest.
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
