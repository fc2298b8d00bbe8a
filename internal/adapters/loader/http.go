package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odinsy/topheats-rating/internal/adapters/index"
	"github.com/odinsy/topheats-rating/internal/domain/model"
)

const maxDocumentBytes = 32 << 20

// HTTPLoader fetches rankings from a static site, e.g. the published pages.
type HTTPLoader struct {
	base   *url.URL
	client *http.Client
}

// HTTPOption applies a configuration option to the HTTPLoader.
type HTTPOption func(*HTTPLoader)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(l *HTTPLoader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(l *HTTPLoader) {
		if d > 0 {
			l.client = &http.Client{Timeout: d, Transport: l.client.Transport}
		}
	}
}

// NewHTTPLoader returns a loader for rankings under baseURL.
func NewHTTPLoader(baseURL string, opts ...HTTPOption) (*HTTPLoader, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse data url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("data url %q: scheme must be http or https", baseURL)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	l := &HTTPLoader{base: u, client: &http.Client{Timeout: 5 * time.Second}}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Index fetches index.json from the base URL.
func (l *HTTPLoader) Index(ctx context.Context) (model.Index, error) {
	body, err := l.fetch(ctx, index.FileName)
	if err != nil {
		return model.Index{}, err
	}
	defer body.Close()
	return index.Read(body)
}

// Document fetches and decodes the ranking file named by entry.
func (l *HTTPLoader) Document(ctx context.Context, entry model.IndexEntry) (model.Document, error) {
	body, err := l.fetch(ctx, entry.Path)
	if err != nil {
		return model.Document{}, err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, maxDocumentBytes))
	if err != nil {
		return model.Document{}, fmt.Errorf("read %s: %w", entry.Path, err)
	}
	doc, err := model.ParseDocument(data)
	if err != nil {
		return model.Document{}, fmt.Errorf("%s: %w", entry.Path, err)
	}
	return doc, nil
}

func (l *HTTPLoader) fetch(ctx context.Context, rel string) (io.ReadCloser, error) {
	u, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}
	return resp.Body, nil
}

// resolve turns a relative index path into a URL under the base, refusing
// absolute URLs and paths that leave the base.
func (l *HTTPLoader) resolve(rel string) (*url.URL, error) {
	ref, err := url.Parse(rel)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q: %w", ErrNotFound, rel, err)
	}
	if ref.IsAbs() || ref.Host != "" || ref.User != nil {
		return nil, fmt.Errorf("%w: path %q is not relative", ErrNotFound, rel)
	}
	u := l.base.ResolveReference(ref)
	if u.Scheme != l.base.Scheme || u.Host != l.base.Host || !strings.HasPrefix(u.Path, l.base.Path) {
		return nil, fmt.Errorf("%w: path %q outside data url", ErrNotFound, rel)
	}
	return u, nil
}
