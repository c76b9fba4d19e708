package logging

import (
	"log/slog"
	"time"
)

// FieldComponent tags the subsystem a record came from.
const FieldComponent = "component"

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Error attaches an error message under the conventional "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// NewComponentLogger returns a child logger whose records carry the component
// name. A nil parent yields a no-op logger.
func NewComponentLogger(parent *slog.Logger, component string) *slog.Logger {
	if parent == nil {
		return NewNop()
	}
	return parent.With(String(FieldComponent, component))
}

// NewNop returns a logger that discards everything. Useful for tests and for
// components constructed without a logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
