package cmd

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/careoptions/rcm-dashboard/internal/application/port"
	"github.com/careoptions/rcm-dashboard/internal/infrastructure/watcher"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

type refresher interface {
	Refresh() []string
}

type invalidator interface {
	Invalidate(ctx context.Context, name string) error
}

// assetSync reacts to a change under the asset root: the manifest is
// rechecked, the cached copy dropped and an event published. cache and
// events may be nil.
type assetSync struct {
	manifest refresher
	cache    invalidator
	events   port.EventPublisher
	subject  string
	changes  prometheus.Counter
	logger   *logger.Logger
	now      func() time.Time
}

func newAssetSync(
	manifest refresher,
	cache invalidator,
	events port.EventPublisher,
	subject string,
	changes prometheus.Counter,
	log *logger.Logger,
) *assetSync {
	return &assetSync{
		manifest: manifest,
		cache:    cache,
		events:   events,
		subject:  subject,
		changes:  changes,
		logger:   log,
		now:      time.Now,
	}
}

func (s *assetSync) Handle(ctx context.Context, change watcher.Change) {
	s.changes.Inc()
	s.logger.Info("Asset changed", "path", change.Path, "op", change.Op)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, change.Path); err != nil {
			s.logger.Warn("Failed to invalidate cached asset", "path", change.Path, "error", err.Error())
		}
	}

	s.manifest.Refresh()

	if s.events == nil {
		return
	}
	event := port.AssetChangedEvent{Path: change.Path, Op: change.Op, At: s.now().UTC()}
	if err := s.events.PublishEvent(ctx, s.subject, event); err != nil {
		s.logger.Warn("Failed to publish asset change", "path", change.Path, "error", err.Error())
	}
}
