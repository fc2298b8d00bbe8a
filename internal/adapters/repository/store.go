// Package repository stores loaded rankings for the API.
package repository

import (
	"context"

	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// Store provides read/write access to loaded rankings.
type Store interface {
	// Put replaces the ranking with the same ID.
	Put(ctx context.Context, r model.Ranking) error

	// Get returns a ranking by ID.
	// Returns ErrNotFound if the ranking is unknown.
	Get(ctx context.Context, id string) (model.Ranking, error)

	// List returns the index entries of every stored ranking, ordered by ID.
	List(ctx context.Context) ([]model.IndexEntry, error)

	// Prune removes rankings whose ID is not in keep and reports how many
	// were removed.
	Prune(ctx context.Context, keep []string) (int, error)

	// Count returns the number of stored rankings.
	Count(ctx context.Context) int
}
