package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/odinsy/topheats-rating/pkg/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher calls a function when JSON files under a directory change. Bursts
// of events are collapsed into one call.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func(ctx context.Context)
	log      logger.Logger
}

// WatchOption applies a configuration option to the Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l logger.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWatcher creates a watcher for root.
func NewWatcher(root string, onChange func(ctx context.Context), opts ...WatchOption) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: defaultDebounce,
		onChange: onChange,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	w.log.Info(ctx, "watching data dir", logger.String("root", w.root))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if err := w.addTree(fw, ev.Name); err != nil {
					w.log.Warn(ctx, "watch new dir failed", logger.String("path", ev.Name), logger.Error(err))
				}
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debug(ctx, "data changed", logger.String("path", ev.Name), logger.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "watcher error", logger.Error(err))
		case <-timer.C:
			w.onChange(ctx)
		}
	}
}

// addTree watches dir and every directory below it. Non-directories are
// ignored.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(p)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// relevant reports whether an event touches a published JSON file. Temporary
// files written before an atomic rename start with a dot.
func relevant(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".json") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
