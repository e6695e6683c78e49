package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/careoptions/rcm-dashboard/internal/application/port"
)

type Logger struct {
	logger *log.Logger
	level  Level

	mu        sync.RWMutex
	publisher port.LogPublisher
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Format selects the charmbracelet formatter used for stdout.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

func New(level string) *Logger {
	return NewWithWriter(os.Stdout, level, Format(os.Getenv("LOG_FORMAT")))
}

func NewWithWriter(w io.Writer, level string, format Format) *Logger {
	parsed := parseLevel(level)

	l := log.NewWithOptions(w, log.Options{
		Level:           toCharmLevel(parsed),
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Formatter:       toFormatter(format),
	})

	return &Logger{
		logger: l,
		level:  parsed,
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func toCharmLevel(level Level) log.Level {
	switch level {
	case DEBUG:
		return log.DebugLevel
	case WARN:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func toFormatter(format Format) log.Formatter {
	switch Format(strings.ToLower(string(format))) {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// SetLogPublisher mirrors every emitted entry into an external log sink.
// Passing nil detaches the current sink.
func (l *Logger) SetLogPublisher(publisher port.LogPublisher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publisher = publisher
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.logger.Debug(msg, args...)
		l.publish(port.LogLevelDebug, msg, args)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.logger.Info(msg, args...)
		l.publish(port.LogLevelInfo, msg, args)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.logger.Warn(msg, args...)
		l.publish(port.LogLevelWarn, msg, args)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.logger.Error(msg, args...)
		l.publish(port.LogLevelError, msg, args)
	}
}

func (l *Logger) publish(level port.LogLevel, msg string, args []interface{}) {
	l.mu.RLock()
	publisher := l.publisher
	l.mu.RUnlock()

	if publisher == nil {
		return
	}

	entry := port.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   msg,
		Fields:    toFields(args),
	}

	// The publisher buffers; a failed flush must not recurse into the logger.
	_ = publisher.Publish(context.Background(), entry)
}

func toFields(args []interface{}) map[string]interface{} {
	if len(args) < 2 {
		return nil
	}

	fields := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return fields
}
