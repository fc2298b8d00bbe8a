package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVReader parses pipe-delimited result tables.
type CSVReader struct {
	Comma rune
}

// NewCSVReader returns a reader for "|"-delimited files.
func NewCSVReader() CSVReader {
	return CSVReader{Comma: '|'}
}

// Read parses every row of r.
func (c CSVReader) Read(r io.Reader) (File, error) {
	cr := csv.NewReader(r)
	cr.Comma = c.Comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("%w: empty file", ErrMissingColumns)
		}
		return File{}, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(first)
	if missing := h.missing(); len(missing) > 0 {
		return File{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var out File
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return File{}, fmt.Errorf("read row: %w", err)
		}
		if blank(cells) {
			continue
		}
		row, reason := h.parseRow(cells)
		if reason != "" {
			out.skip(reason)
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
