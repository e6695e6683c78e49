package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careoptions/rcm-dashboard/internal/application/port"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages   []published
	publishErr error
	flushed    bool
	drained    bool
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.messages = append(c.messages, published{subject: subj, data: data})
	return nil
}

func (c *fakeConn) FlushWithContext(context.Context) error {
	c.flushed = true
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func TestNATSPublisher_PublishEvent(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisherWithConn(conn, logger.New("error"))

	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	err := p.PublishEvent(context.Background(), "rcm.assets.changed", port.AssetChangedEvent{
		Path: "kpi_map.json",
		Op:   "write",
		At:   at,
	})
	require.NoError(t, err)
	require.Len(t, conn.messages, 1)
	assert.Equal(t, "rcm.assets.changed", conn.messages[0].subject)

	var decoded port.AssetChangedEvent
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &decoded))
	assert.Equal(t, "kpi_map.json", decoded.Path)
	assert.Equal(t, "write", decoded.Op)
	assert.True(t, at.Equal(decoded.At))
}

func TestNATSPublisher_PublishError(t *testing.T) {
	conn := &fakeConn{publishErr: errors.New("connection closed")}
	p := NewNATSPublisherWithConn(conn, logger.New("error"))

	err := p.PublishEvent(context.Background(), "rcm.assets.changed", map[string]string{"path": "index.html"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish event")
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisherWithConn(conn, logger.New("error"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.PublishEvent(ctx, "rcm.assets.changed", struct{}{}), context.Canceled)
	assert.Empty(t, conn.messages)
}

func TestNATSPublisher_CloseDrains(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisherWithConn(conn, logger.New("error"))

	require.NoError(t, p.Close())
	assert.True(t, conn.flushed)
	assert.True(t, conn.drained)
}
