package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/pkg/metrics"
)

// MemoryStore keeps rankings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	rankings map[string]model.Ranking
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rankings: make(map[string]model.Ranking)}
}

func (s *MemoryStore) Put(_ context.Context, r model.Ranking) error {
	if r.Entry.ID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	s.rankings[r.Entry.ID] = r
	s.mu.Unlock()
	s.updateMetrics()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Ranking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rankings[id]
	if !ok {
		return model.Ranking{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.IndexEntry, error) {
	s.mu.RLock()
	out := make([]model.IndexEntry, 0, len(s.rankings))
	for _, r := range s.rankings {
		out = append(out, r.Entry)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Prune(_ context.Context, keep []string) (int, error) {
	wanted := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		wanted[id] = struct{}{}
	}
	s.mu.Lock()
	removed := 0
	for id := range s.rankings {
		if _, ok := wanted[id]; !ok {
			delete(s.rankings, id)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.updateMetrics()
	}
	return removed, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rankings)
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	athletes := 0
	for _, r := range s.rankings {
		athletes += len(r.Athletes)
	}
	total := len(s.rankings)
	s.mu.RUnlock()
	metrics.UpdateRankingsTotal(total)
	metrics.UpdateAthletesTotal(athletes)
}
