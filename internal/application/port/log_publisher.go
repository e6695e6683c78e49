package port

import (
	"context"
	"time"
)

// LogLevel is the severity attached to a shipped log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is one structured log line handed to an external sink.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Fields    map[string]interface{}
}

// LogPublisher ships log entries to an external log store.
type LogPublisher interface {
	// Publish buffers a single entry. Implementations flush on their own schedule.
	Publish(ctx context.Context, entry LogEntry) error

	// Flush pushes everything buffered so far. Called on shutdown.
	Flush(ctx context.Context) error
}
