// Package dedupe detects result rows that appear more than once across
// input files.
package dedupe

import (
	"container/list"
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Deduper records row keys to detect repeated results.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets a key, e.g. when the row it belonged to was rejected
	// later in the pipeline.
	Unrecord(ctx context.Context, key string)

	// Size is the number of keys currently held.
	Size() int64

	// Duplicates is the number of SeenAndRecord calls that returned true.
	Duplicates() int64
}

// Key identifies one athlete's result in one event of one year.
func Key(year int, event, athlete string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(year))
	b.WriteByte('|')
	b.WriteString(strings.TrimSpace(event))
	b.WriteByte('|')
	b.WriteString(strings.Join(strings.Fields(athlete), " "))
	return b.String()
}

// inMemoryDeduper keeps keys in a map. In bounded mode the oldest key is
// evicted once maxSize is reached.
type inMemoryDeduper struct {
	mu         sync.Mutex
	seen       map[string]*list.Element
	order      *list.List
	maxSize    int
	size       atomic.Int64
	duplicates atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:  make(map[string]*list.Element),
		order: list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		d.duplicates.Add(1)
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			delete(d.seen, oldest.Value.(string))
			d.order.Remove(oldest)
			d.size.Add(-1)
		}
	}

	d.seen[key] = d.order.PushBack(key)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	d.order.Remove(el)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

func (d *inMemoryDeduper) Duplicates() int64 {
	return d.duplicates.Load()
}
