// Package logging wraps zerolog the way the original MCP server's
// logger.go does: a single process-wide instance, console output by
// default, optional file tee, and a settable level.
package logging

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type loggerInstance struct {
	mu     sync.RWMutex
	logger zerolog.Logger
}

func (l *loggerInstance) get() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &l.logger
}

func newLoggerInstance() *loggerInstance {
	return &loggerInstance{
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger(),
	}
}

var loggerHolder = newLoggerInstance()

// InitFileTee additionally tees log output to logFilePath, matching the
// original MCP server's console+file behaviour. Safe to call once at
// startup; omit the call to stay console-only.
func InitFileTee(logFilePath string) error {
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	multi := zerolog.MultiLevelWriter(consoleWriter, logFile)

	loggerHolder.mu.Lock()
	loggerHolder.logger = zerolog.New(multi).With().Timestamp().Caller().Logger()
	loggerHolder.mu.Unlock()
	return nil
}

// SetLevel sets the global log level.
func SetLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	return loggerHolder.get()
}

// EventDedup suppresses repeat (event_type, hash) log lines within a
// one-minute window (spec.md §4.6 "Cache-event logging is deduplicated").
type EventDedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewEventDedup() *EventDedup {
	return &EventDedup{seen: make(map[string]time.Time)}
}

// ShouldLog reports whether (eventType, hash) has not been logged in the
// last minute, and if so marks it as logged now.
func (d *EventDedup) ShouldLog(eventType, hash string) bool {
	key := eventType + ":" + hash
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.seen[key]; ok && now.Sub(last) < time.Minute {
		return false
	}
	d.seen[key] = now
	return true
}
