// Package service loads published rankings into a store and answers the
// queries required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/odinsy/topheats-rating/internal/adapters/loader"
	eventqueue "github.com/odinsy/topheats-rating/internal/adapters/mq/queue"
	workerpool "github.com/odinsy/topheats-rating/internal/adapters/mq/worker"
	repository "github.com/odinsy/topheats-rating/internal/adapters/repository"
	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/internal/domain/ranking"
	"github.com/odinsy/topheats-rating/pkg/logger"
	"github.com/odinsy/topheats-rating/pkg/metrics"
)

const (
	defaultQueueSize   = 1024
	defaultTopLimit    = 5
	reloadWaitTimeout  = 2 * time.Minute
	watcherRetryPeriod = 5 * time.Second
)

// ErrNotStarted is returned by Reload before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the ranking server.
type Service struct {
	mu       sync.RWMutex
	reloadMu sync.Mutex

	// Core components
	source loader.Loader
	store  repository.Store
	queue  *eventqueue.InMemoryQueue
	pool   *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	topLimit       int
	reloadInterval time.Duration
	watchDir       string

	// State
	started    bool
	cancel     context.CancelFunc
	background sync.WaitGroup
	lastReload model.ReloadReport
	lastErr    error

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ranking store. The default is a MemoryStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of reload workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the reload queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTopLimit sets the default size of Top.
func WithTopLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topLimit = n
		}
	}
}

// WithReloadInterval reloads every d while the service runs.
func WithReloadInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reloadInterval = d
		}
	}
}

// WithWatch reloads when JSON files under dir change.
func WithWatch(dir string) Option {
	return func(s *Service) {
		s.watchDir = dir
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service that reads rankings from src.
func New(src loader.Loader, opts ...Option) *Service {
	s := &Service{
		source:      src,
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		topLimit:    defaultTopLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// Start starts the workers, performs the first reload and schedules later
// ones. A failed first reload is logged; the service still starts.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.source == nil {
		s.mu.Unlock()
		return errors.New("service has no ranking source")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, workerpool.ProcessorFunc(s.process))
	s.pool.Start(runCtx)
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)

	if _, err := s.Reload(ctx); err != nil {
		s.logger.Warn(ctx, "initial reload failed", logger.Error(err))
	}

	if s.reloadInterval > 0 {
		s.background.Add(1)
		go s.reloadLoop(runCtx)
	}
	if s.watchDir != "" {
		s.background.Add(1)
		go s.watch(runCtx)
	}
	return nil
}

// Stop cancels background reloads and drains the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel, pool := s.cancel, s.pool
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking service...")

	cancel()
	s.background.Wait()
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.logger.Info(ctx, "ranking service stopped")
}

// Reload reads the index, loads every listed ranking through the worker
// pool and drops stored rankings the index no longer lists. Concurrent calls
// run one after another.
func (s *Service) Reload(ctx context.Context) (model.ReloadReport, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return model.ReloadReport{}, ErrNotStarted
	}

	start := time.Now()
	idx, err := s.source.Index(ctx)
	if err != nil {
		metrics.RecordRankingLoadError()
		s.setLast(model.ReloadReport{At: start}, err)
		return model.ReloadReport{}, fmt.Errorf("load index: %w", err)
	}

	batch := eventqueue.NewBatch()
	keep := make([]string, 0, len(idx.Rankings))
	for _, entry := range idx.Rankings {
		keep = append(keep, entry.ID)
		batch.Add(1)
		if !q.Enqueue(ctx, eventqueue.Job{Entry: entry, Batch: batch}) {
			batch.Done(fmt.Errorf("%s: %w", entry.ID, eventqueue.ErrBackpressure))
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, reloadWaitTimeout)
	defer cancel()
	loadErr := batch.Wait(waitCtx)

	report := model.ReloadReport{
		Rankings: len(idx.Rankings),
		Loaded:   batch.Loaded(),
		Failed:   batch.Failed(),
		At:       start,
	}
	// Stale rankings are only dropped once the new set is in place.
	if !errors.Is(loadErr, context.DeadlineExceeded) && !errors.Is(loadErr, context.Canceled) {
		pruned, err := s.store.Prune(ctx, keep)
		if err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("prune: %w", err))
		}
		report.Pruned = pruned
	}
	report.Duration = time.Since(start)
	s.setLast(report, loadErr)

	s.logger.Info(ctx, "rankings reloaded",
		logger.Int("rankings", report.Rankings),
		logger.Int("loaded", report.Loaded),
		logger.Int("failed", report.Failed),
		logger.Int("pruned", report.Pruned),
		logger.Duration("took", report.Duration),
	)
	return report, loadErr
}

func (s *Service) setLast(r model.ReloadReport, err error) {
	s.mu.Lock()
	s.lastReload, s.lastErr = r, err
	s.mu.Unlock()
}

// process loads one ranking document and stores it with best results attached.
func (s *Service) process(ctx context.Context, j eventqueue.Job) error {
	start := time.Now()
	doc, err := s.source.Document(ctx, j.Entry)
	if err != nil {
		metrics.RecordRankingLoadError()
		return fmt.Errorf("%s: %w", j.Entry.ID, err)
	}

	athletes, noData := ranking.Prepare(doc)
	r := model.Ranking{
		Entry:       j.Entry,
		Discipline:  firstNonEmpty(doc.Discipline, j.Entry.Discipline),
		Gender:      firstNonEmpty(doc.Gender, j.Entry.Gender),
		LastUpdated: doc.LastUpdated,
		Years:       model.CollectYears(doc.Athletes),
		Athletes:    athletes,
		LoadedAt:    time.Now().UTC(),
	}
	if err := s.store.Put(ctx, r); err != nil {
		metrics.RecordRankingLoadError()
		return fmt.Errorf("%s: store: %w", j.Entry.ID, err)
	}

	metrics.RecordRankingLoaded()
	metrics.RecordBestResultNoData(noData)
	metrics.RecordRankingLoadLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

func (s *Service) reloadLoop(ctx context.Context) {
	defer s.background.Done()
	ticker := time.NewTicker(s.reloadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn(ctx, "scheduled reload failed", logger.Error(err))
			}
		}
	}
}

func (s *Service) watch(ctx context.Context) {
	defer s.background.Done()
	w := loader.NewWatcher(s.watchDir, func(ctx context.Context) {
		if _, err := s.Reload(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn(ctx, "reload after change failed", logger.Error(err))
		}
	}, loader.WithWatchLogger(s.logger.Named("watcher")))

	for {
		err := w.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn(ctx, "data watcher stopped; retrying", logger.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(watcherRetryPeriod):
		}
	}
}

// Rankings lists the loaded rankings ordered by ID.
func (s *Service) Rankings(ctx context.Context) ([]model.IndexEntry, error) {
	return s.store.List(ctx)
}

// Ranking returns a loaded ranking with f applied to its athletes.
func (s *Service) Ranking(ctx context.Context, id string, f model.RankingFilter) (model.Ranking, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Ranking{}, err
	}
	if f.IsZero() {
		return r, nil
	}

	out := make([]model.RankedAthlete, 0, len(r.Athletes))
	for _, a := range r.Athletes {
		if f.Year != 0 {
			if _, ok := a.Years[f.Year]; !ok {
				continue
			}
		}
		if f.Region != "" && !strings.EqualFold(strings.TrimSpace(a.Region), strings.TrimSpace(f.Region)) {
			continue
		}
		out = append(out, a)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	r.Athletes = out
	return r, nil
}

// Athlete returns one athlete of a ranking by exact name.
func (s *Service) Athlete(ctx context.Context, id, name string) (model.RankedAthlete, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return model.RankedAthlete{}, err
	}
	a, ok := r.Athlete(strings.TrimSpace(name))
	if !ok {
		return model.RankedAthlete{}, fmt.Errorf("athlete %q: %w", name, repository.ErrNotFound)
	}
	return a, nil
}

// Top returns the first n ranked athletes of a ranking. n <= 0 uses the
// configured top limit.
func (s *Service) Top(ctx context.Context, id string, n int) ([]model.RankedAthlete, error) {
	if n <= 0 {
		n = s.topLimit
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]model.RankedAthlete, 0, n)
	for _, a := range r.Athletes {
		if a.Rank <= 0 {
			continue
		}
		out = append(out, a)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"rankings":    s.store.Count(ctx),
		"lastReload":  s.lastReload,
	}
	if s.lastErr != nil {
		stats["lastReloadError"] = s.lastErr.Error()
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
