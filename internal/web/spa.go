package web

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
)

// spaHandler serves the built client bundle. Paths that are not files are
// client-side routes and get index.html.
type spaHandler struct {
	root   fs.FS
	files  http.Handler
	logger *slog.Logger
}

func newSPAHandler(dir string, logger *slog.Logger) *spaHandler {
	root := os.DirFS(dir)
	return &spaHandler{
		root:   root,
		files:  http.FileServerFS(root),
		logger: logger,
	}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name != "" && name != "index.html" {
		info, err := fs.Stat(h.root, name)
		if err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrInvalid) {
			h.logger.Warn("static file lookup failed", "path", name, "error", err)
		}
	}
	h.serveIndex(w, r)
}

func (h *spaHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	index, err := fs.ReadFile(h.root, "index.html")
	if err != nil {
		h.logger.Error("failed to read index.html", "error", err)
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(index)
}
