// Package logger provides a structured, module-aware logging system built on log/slog.
//
// Components receive a Logger (usually a module logger obtained from the
// CentralLogger) and log with typed fields:
//
//	log := logger.Global().Module("forecast")
//	log.Info("forecast refreshed",
//	    logger.String("spot", spot.Slug),
//	    logger.Int("created", created))
//
// Console output is human-readable text, file output is JSON. Module levels
// can be raised or lowered independently through LoggingConfig.ModuleLevels.
package logger

import (
	"context"
	"time"
	"unique"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field is one key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Keys repeat on every entry, so they are interned once.
func internKey(key string) string {
	return unique.Make(key).Value()
}

var (
	errorKey         = internKey("error")
	moduleKey        = internKey("module")
	correlationIDKey = internKey("correlation_id")
)

// Logger is what components depend on. Module loggers from the CentralLogger
// and the test logger both implement it.
type Logger interface {
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)

	With(fields ...Field) Logger
	// WithContext adds the request correlation ID stored by WithCorrelationID.
	WithContext(ctx context.Context) Logger

	Flush() error
}

func field[T any](key string, value T) Field {
	return Field{Key: internKey(key), Value: value}
}

func String(key, value string) Field                 { return field(key, value) }
func Int(key string, value int) Field                { return field(key, value) }
func Int64(key string, value int64) Field            { return field(key, value) }
func Float64(key string, value float64) Field        { return field(key, value) }
func Bool(key string, value bool) Field              { return field(key, value) }
func Duration(key string, value time.Duration) Field { return field(key, value) }
func Time(key string, value time.Time) Field         { return field(key, value) }

// Error always uses the "error" key. A nil err logs a nil value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// CorrelationID tags entries that belong to one API request.
func CorrelationID(id string) Field {
	return Field{Key: correlationIDKey, Value: id}
}
