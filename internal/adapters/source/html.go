package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLReader parses the first results table of an HTML page.
type HTMLReader struct{}

// Read finds the first <table> whose header row carries the required columns
// and parses its remaining rows.
func (HTMLReader) Read(r io.Reader) (File, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return File{}, fmt.Errorf("parse html: %w", err)
	}

	var (
		out   File
		found bool
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return true
		}
		h := newHeader(cells(rows.First()))
		if len(h.missing()) > 0 {
			return true
		}
		found = true
		rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
			c := cells(tr)
			if blank(c) {
				return
			}
			row, reason := h.parseRow(c)
			if reason != "" {
				out.skip(reason)
				return
			}
			out.Rows = append(out.Rows, row)
		})
		return false
	})
	if !found {
		return File{}, fmt.Errorf("%w: no table with %s", ErrMissingColumns, strings.Join(RequiredColumns, ", "))
	}
	return out, nil
}

func cells(tr *goquery.Selection) []string {
	var out []string
	tr.Find("th, td").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}
