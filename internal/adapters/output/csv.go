package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// WriteCSV writes the table as comma-separated values with a header row.
func WriteCSV(path string, t Table, athletes []model.Athlete) error {
	return writeFile(path, func(f *os.File) error {
		return EncodeCSV(f, t, athletes)
	})
}

// EncodeCSV writes the table to w.
func EncodeCSV(w io.Writer, t Table, athletes []model.Athlete) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	for _, a := range athletes {
		if err := cw.Write(t.Row(a)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Console prints at most n rows as comma-joined lines.
func Console(w io.Writer, t Table, athletes []model.Athlete, n int) error {
	if n > 0 && n < len(athletes) {
		athletes = athletes[:n]
	}
	if err := EncodeCSV(w, t, athletes); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
