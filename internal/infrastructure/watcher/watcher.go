// Package watcher reports changes under the static asset root using fsnotify.
// Editors and build tools tend to write a file several times in a row, so
// events are debounced per path.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Temporary files written by editors and bundlers.
var ignoreSuffixes = []string{".swp", ".swx", ".tmp", "~", ".crdownload"}

// Change is a single debounced event. Path is relative to the watched root,
// slash-separated, so it can be used directly as an fs.FS name.
type Change struct {
	Path string
	Op   string
}

type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration

	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

func New() (*Watcher, error) {
	return NewWithDebounce(defaultDebounce)
}

func NewWithDebounce(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:       fw,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Watch monitors root recursively and calls onChange from a single goroutine.
// onError receives watcher errors and may be nil.
func (w *Watcher) Watch(root string, onChange func(Change), onError func(error)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if isHidden(d.Name()) && path != absRoot {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.loop(absRoot, onChange, onError)
	return nil
}

func (w *Watcher) loop(absRoot string, onChange func(Change), onError func(error)) {
	debounce := newDebouncer(w.debounce)

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					_ = w.fw.Add(event.Name)
				}
			}

			rel, err := filepath.Rel(absRoot, event.Name)
			if err != nil || shouldIgnore(rel) {
				continue
			}

			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}

			if !debounce.allow(rel, time.Now()) {
				continue
			}

			onChange(Change{Path: filepath.ToSlash(rel), Op: opName(event.Op)})

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}

		case <-w.done:
			return
		}
	}
}

// Stop ends monitoring. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// debouncer passes the first event for a path and drops repeats inside the
// window. Entries older than the window are swept at most once per window.
type debouncer struct {
	window time.Duration
	last   map[string]time.Time
	swept  time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, last: make(map[string]time.Time)}
}

func (d *debouncer) allow(path string, now time.Time) bool {
	if now.Sub(d.swept) >= d.window {
		for p, at := range d.last {
			if now.Sub(at) >= d.window {
				delete(d.last, p)
			}
		}
		d.swept = now
	}

	if prev, seen := d.last[path]; seen && now.Sub(prev) < d.window {
		return false
	}
	d.last[path] = now
	return true
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Create):
		return "create"
	default:
		return "write"
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func shouldIgnore(rel string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if isHidden(part) {
			return true
		}
	}
	base := filepath.Base(rel)
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
