package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odinsy/topheats-rating/internal/adapters/index"
	"github.com/odinsy/topheats-rating/internal/domain/model"
)

// FileLoader reads rankings from a local directory.
type FileLoader struct {
	root string
}

// NewFileLoader returns a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{root: dir}
}

// Root returns the data directory.
func (l *FileLoader) Root() string { return l.root }

// Index reads index.json from the data directory.
func (l *FileLoader) Index(ctx context.Context) (model.Index, error) {
	if err := ctx.Err(); err != nil {
		return model.Index{}, err
	}
	idx, err := index.ReadFile(filepath.Join(l.root, index.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return model.Index{}, fmt.Errorf("%w: %s", ErrNotFound, index.FileName)
	}
	return idx, err
}

// Document reads and decodes the ranking file named by entry.
func (l *FileLoader) Document(ctx context.Context, entry model.IndexEntry) (model.Document, error) {
	if err := ctx.Err(); err != nil {
		return model.Document{}, err
	}
	p, err := l.resolve(entry.Path)
	if err != nil {
		return model.Document{}, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Document{}, fmt.Errorf("%w: %s", ErrNotFound, entry.Path)
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("read %s: %w", entry.Path, err)
	}
	doc, err := model.ParseDocument(data)
	if err != nil {
		return model.Document{}, fmt.Errorf("%s: %w", entry.Path, err)
	}
	return doc, nil
}

// resolve joins a relative index path to the root, refusing paths that
// escape it.
func (l *FileLoader) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q outside data dir", ErrNotFound, rel)
	}
	return filepath.Join(l.root, clean), nil
}
