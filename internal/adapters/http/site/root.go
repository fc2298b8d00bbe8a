// Package site serves the published ranking files so static pages can fetch
// index.json and the ranking documents next to the API.
package site

import (
	"context"
	"net/http"
	"path"
	"strings"
)

// Prefix is the URL path the data directory is served under.
const Prefix = "/data/"

// Register attaches the data file routes to mux. Only JSON files are served
// and directory listings are refused.
func Register(_ context.Context, mux *http.ServeMux, dir string) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET "+Prefix, http.StripPrefix(strings.TrimSuffix(Prefix, "/"), NewDataHandler(dir)))
}

// DataHandler serves JSON files below a directory.
type DataHandler struct {
	files http.Handler
}

// NewDataHandler creates a handler for dir.
func NewDataHandler(dir string) *DataHandler {
	return &DataHandler{files: http.FileServer(http.Dir(dir))}
}

func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	if path.Ext(p) != ".json" || strings.Contains(p, "/.") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	h.files.ServeHTTP(w, r)
}
