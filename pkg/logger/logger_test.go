package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careoptions/rcm-dashboard/internal/application/port"
)

type recordingPublisher struct {
	mu      sync.Mutex
	entries []port.LogEntry
}

func (p *recordingPublisher) Publish(_ context.Context, entry port.LogEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return nil
}

func (p *recordingPublisher) Flush(context.Context) error { return nil }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, parseLevel("debug"))
	assert.Equal(t, WARN, parseLevel(" WARN "))
	assert.Equal(t, ERROR, parseLevel("error"))
	assert.Equal(t, INFO, parseLevel("verbose"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", FormatText)

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", FormatJSON)

	l.Error("asset read failed", errors.New("boom"), "path", "kpi_map.json")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "asset read failed", line["msg"])
	assert.Equal(t, "kpi_map.json", line["path"])
	assert.Equal(t, "boom", line["error"])
}

func TestLogger_PublishesEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", FormatLogfmt)
	pub := &recordingPublisher{}
	l.SetLogPublisher(pub)

	l.Debug("filtered")
	l.Info("served", "status", 200)
	l.Error("failed", errors.New("boom"))

	require.Len(t, pub.entries, 2)
	assert.Equal(t, port.LogLevelInfo, pub.entries[0].Level)
	assert.Equal(t, "served", pub.entries[0].Message)
	assert.Equal(t, map[string]interface{}{"status": 200}, pub.entries[0].Fields)
	assert.Equal(t, port.LogLevelError, pub.entries[1].Level)
	assert.Equal(t, "boom", pub.entries[1].Fields["error"])

	l.SetLogPublisher(nil)
	l.Info("after detach")
	assert.Len(t, pub.entries, 2)
}

func TestToFields_OddArgs(t *testing.T) {
	assert.Nil(t, toFields([]interface{}{"lonely"}))
	assert.Equal(t, map[string]interface{}{"a": 1}, toFields([]interface{}{"a", 1, "dangling"}))
}
