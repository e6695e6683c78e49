package port

import (
	"context"
	"time"
)

// AssetChangedEvent describes a change observed under the static asset root.
type AssetChangedEvent struct {
	Path string    `json:"path"`
	Op   string    `json:"op"`
	At   time.Time `json:"at"`
}

// EventPublisher publishes events to a message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, subject string, event interface{}) error

	Close() error
}
