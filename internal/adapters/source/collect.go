package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Reader parses one results file.
type Reader interface {
	Read(r io.Reader) (File, error)
}

// Option applies a configuration option to Collect.
type Option func(*collector)

// WithConcurrency limits the number of files parsed at once.
func WithConcurrency(n int) Option {
	return func(c *collector) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithReader registers a reader for a file extension such as ".txt".
func WithReader(ext string, r Reader) Option {
	return func(c *collector) {
		c.readers[strings.ToLower(ext)] = r
	}
}

type collector struct {
	limit    int
	readers  map[string]Reader
	fallback Reader
}

// Expand resolves glob patterns to files, in pattern order, without
// duplicates.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

// Collect parses every file matched by patterns concurrently. Files with
// .html or .htm extensions are read as HTML, everything else as CSV. Results
// keep the order of Expand.
func Collect(ctx context.Context, patterns []string, opts ...Option) ([]File, error) {
	c := &collector{
		limit: runtime.GOMAXPROCS(0),
		readers: map[string]Reader{
			".html": HTMLReader{},
			".htm":  HTMLReader{},
		},
		fallback: NewCSVReader(),
	}
	for _, opt := range opts {
		opt(c)
	}

	paths, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, strings.Join(patterns, ", "))
	}

	files := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := c.readFile(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *collector) readFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open: %w", err)
	}
	defer fh.Close()

	r, ok := c.readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		r = c.fallback
	}
	f, err := r.Read(fh)
	if err != nil {
		return File{}, err
	}
	f.Path = path
	return f, nil
}
