// Package loader reads the ranking index and ranking documents from a
// directory or over HTTP.
package loader

import (
	"context"
	"errors"

	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// ErrNotFound is returned when the index or a ranking file does not exist,
// and for index paths that point outside the data source.
var ErrNotFound = errors.New("ranking source not found")

// Loader provides published rankings.
type Loader interface {
	// Index returns the list of published rankings.
	Index(ctx context.Context) (model.Index, error)

	// Document loads the ranking described by entry.
	Document(ctx context.Context, entry model.IndexEntry) (model.Document, error)
}
