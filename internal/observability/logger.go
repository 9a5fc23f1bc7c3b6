// Package observability wires zerolog, Prometheus and OpenTelemetry into the
// service hooks defined by internal/core.
package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kittycore/internal/core"
)

// LogFormat selects the zerolog output encoding.
type LogFormat string

const (
	// LogFormatConsole renders human readable lines.
	LogFormatConsole LogFormat = "console"
	// LogFormatJSON renders one JSON object per line.
	LogFormatJSON LogFormat = "json"
)

// NewLogger builds a zerolog logger tagged with app. A nil writer means stdout.
func NewLogger(w io.Writer, format LogFormat, level zerolog.Level, app string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if format == LogFormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("app", app).Logger()
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(raw string) (zerolog.Level, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", raw, err)
	}
	return level, nil
}

// ServiceLogger adapts a zerolog logger to core.Logger.
type ServiceLogger struct {
	logger zerolog.Logger
}

var _ core.Logger = ServiceLogger{}

// NewServiceLogger wraps logger.
func NewServiceLogger(logger zerolog.Logger) ServiceLogger {
	return ServiceLogger{logger: logger}
}

func (l ServiceLogger) Debug(msg string, kv ...any) { emit(l.logger.Debug(), msg, kv) }
func (l ServiceLogger) Info(msg string, kv ...any)  { emit(l.logger.Info(), msg, kv) }
func (l ServiceLogger) Warn(msg string, kv ...any)  { emit(l.logger.Warn(), msg, kv) }
func (l ServiceLogger) Error(msg string, kv ...any) { emit(l.logger.Error(), msg, kv) }

// emit attaches key/value pairs; a dangling key is logged under "extra".
func emit(event *zerolog.Event, msg string, kv []any) {
	if event == nil {
		return
	}
	if len(kv)%2 == 1 {
		event = event.Interface("extra", kv[len(kv)-1])
		kv = kv[:len(kv)-1]
	}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		switch v := kv[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	event.Msg(msg)
}
