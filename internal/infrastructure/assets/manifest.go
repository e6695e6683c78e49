package assets

import (
	"context"
	"io/fs"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

// Manifest tracks whether the files the dashboard cannot work without are
// present under the asset root.
type Manifest struct {
	fsys     fs.FS
	required []string
	logger   *logger.Logger

	onRefresh func(missing []string)

	ready atomic.Bool

	mu        sync.RWMutex
	missing   []string
	checkedAt time.Time
}

func NewManifest(fsys fs.FS, required []string, log *logger.Logger) *Manifest {
	return &Manifest{
		fsys:     fsys,
		required: slices.Clone(required),
		logger:   log,
	}
}

// OnRefresh registers a hook called with the missing files after every check.
func (m *Manifest) OnRefresh(fn func(missing []string)) {
	m.onRefresh = fn
}

// Refresh re-checks every required file and returns the missing ones.
func (m *Manifest) Refresh() []string {
	missing := make([]string, 0)
	for _, name := range m.required {
		info, err := fs.Stat(m.fsys, name)
		if err != nil || info.IsDir() {
			missing = append(missing, name)
		}
	}

	m.mu.Lock()
	changed := !slices.Equal(m.missing, missing) || m.checkedAt.IsZero()
	m.missing = missing
	m.checkedAt = time.Now().UTC()
	m.mu.Unlock()

	m.ready.Store(len(missing) == 0)

	if changed {
		if len(missing) > 0 {
			m.logger.Warn("Required assets missing", "missing", missing)
		} else {
			m.logger.Info("All required assets present", "count", len(m.required))
		}
	}

	if m.onRefresh != nil {
		m.onRefresh(missing)
	}

	return missing
}

// Start refreshes on every tick until ctx is done.
func (m *Manifest) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Refresh()
		}
	}
}

func (m *Manifest) Ready() bool {
	return m.ready.Load()
}

func (m *Manifest) Missing() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.missing)
}

func (m *Manifest) CheckedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkedAt
}
