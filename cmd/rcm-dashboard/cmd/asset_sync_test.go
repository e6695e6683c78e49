package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careoptions/rcm-dashboard/internal/application/port"
	"github.com/careoptions/rcm-dashboard/internal/infrastructure/watcher"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

type countingRefresher struct{ calls int }

func (r *countingRefresher) Refresh() []string {
	r.calls++
	return nil
}

type recordingInvalidator struct {
	names []string
	err   error
}

func (i *recordingInvalidator) Invalidate(_ context.Context, name string) error {
	i.names = append(i.names, name)
	return i.err
}

type recordingEvents struct {
	subjects []string
	events   []interface{}
	err      error
}

func (e *recordingEvents) PublishEvent(_ context.Context, subject string, event interface{}) error {
	e.subjects = append(e.subjects, subject)
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEvents) Close() error { return nil }

func newCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "test_asset_changes_total"})
}

func TestAssetSync_Handle(t *testing.T) {
	var logs bytes.Buffer
	refresher := &countingRefresher{}
	cache := &recordingInvalidator{}
	events := &recordingEvents{}
	changes := newCounter()

	s := newAssetSync(refresher, cache, events, "rcm.assets.changed", changes, logger.NewWithWriter(&logs, "info", logger.FormatText))
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	s.Handle(context.Background(), watcher.Change{Path: "kpi_map.json", Op: "write"})

	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, []string{"kpi_map.json"}, cache.names)
	assert.Equal(t, float64(1), testutil.ToFloat64(changes))
	require.Len(t, events.events, 1)
	assert.Equal(t, "rcm.assets.changed", events.subjects[0])
	assert.Equal(t, port.AssetChangedEvent{Path: "kpi_map.json", Op: "write", At: at}, events.events[0])
}

func TestAssetSync_OptionalCollaborators(t *testing.T) {
	var logs bytes.Buffer
	refresher := &countingRefresher{}

	s := newAssetSync(refresher, nil, nil, "rcm.assets.changed", newCounter(), logger.NewWithWriter(&logs, "info", logger.FormatText))
	s.Handle(context.Background(), watcher.Change{Path: "index.html", Op: "create"})

	assert.Equal(t, 1, refresher.calls)
}

func TestAssetSync_FailuresAreLogged(t *testing.T) {
	var logs bytes.Buffer
	refresher := &countingRefresher{}
	cache := &recordingInvalidator{err: errors.New("redis down")}
	events := &recordingEvents{err: errors.New("nats down")}

	s := newAssetSync(refresher, cache, events, "subj", newCounter(), logger.NewWithWriter(&logs, "info", logger.FormatLogfmt))
	s.Handle(context.Background(), watcher.Change{Path: "people_data.json", Op: "remove"})

	assert.Equal(t, 1, refresher.calls)
	assert.Contains(t, logs.String(), "redis down")
	assert.Contains(t, logs.String(), "nats down")
}
