package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Batch tracks a group of jobs so the submitter can wait for all of them.
type Batch struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	errs   []error
	loaded int
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Add registers n more jobs.
func (b *Batch) Add(n int) {
	b.wg.Add(n)
}

// Done marks one job as finished. A nil error counts as loaded.
func (b *Batch) Done(err error) {
	b.mu.Lock()
	if err != nil {
		b.errs = append(b.errs, err)
	} else {
		b.loaded++
	}
	b.mu.Unlock()
	b.wg.Done()
}

// Wait blocks until every job finished or ctx is done. It returns the joined
// job errors.
func (b *Batch) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return b.Err()
	case <-ctx.Done():
		return fmt.Errorf("wait for batch: %w", ctx.Err())
	}
}

// Err returns the joined errors recorded so far.
func (b *Batch) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.errs...)
}

// Loaded returns the number of jobs that finished without error.
func (b *Batch) Loaded() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Failed returns the number of jobs that finished with an error.
func (b *Batch) Failed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.errs)
}
