package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

const indexFile = "index.html"

// StaticHandler serves the asset tree. It only answers GET and HEAD, and
// answers 404 for anything that is not a file or a directory with an index.
type StaticHandler struct {
	fsys         fs.FS
	files        http.Handler
	cacheControl string
	logger       *logger.Logger
}

func NewStaticHandler(fsys fs.FS, cacheMaxAge time.Duration, log *logger.Logger) *StaticHandler {
	cacheControl := "no-cache"
	if cacheMaxAge > 0 {
		cacheControl = "public, max-age=" + strconv.Itoa(int(cacheMaxAge.Seconds()))
	}

	return &StaticHandler{
		fsys:         fsys,
		files:        http.FileServerFS(fsys),
		cacheControl: cacheControl,
		logger:       log,
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	urlPath := r.URL.Path
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	name := strings.TrimPrefix(path.Clean(urlPath), "/")
	if name == "" {
		name = "."
	}

	info, err := fs.Stat(h.fsys, name)
	if err != nil {
		h.logMiss(name, err)
		http.NotFound(w, r)
		return
	}

	if info.IsDir() {
		index, err := fs.Stat(h.fsys, path.Join(name, indexFile))
		if err != nil || index.IsDir() {
			http.NotFound(w, r)
			return
		}
	}

	// The file server redirects ".../index.html" to the directory; serve it in place.
	if path.Base(name) == indexFile && !info.IsDir() {
		r = r.Clone(r.Context())
		r.URL.Path = "/" + strings.TrimSuffix(name, indexFile)
		r.URL.RawPath = ""
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	h.files.ServeHTTP(w, r)
}

func (h *StaticHandler) logMiss(name string, err error) {
	if h.logger == nil {
		return
	}
	if errors.Is(err, fs.ErrNotExist) {
		h.logger.Debug("Static asset not found", "path", name)
		return
	}
	h.logger.Warn("Static asset lookup failed", "path", name, "error", err.Error())
}
