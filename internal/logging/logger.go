// Package logging provides the leveled slog logger used by the crnsim
// commands and an adapter that lets the simulator core write to it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is a custom slog level below Debug. At this level every
// recorded sample is logged.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace"
// (case-insensitive). Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return newLogger(level, w, false)
}

// NewJSONLogger is NewLogger with one JSON object per line.
func NewJSONLogger(level string, w io.Writer) *slog.Logger {
	return newLogger(level, w, true)
}

func newLogger(level string, w io.Writer, asJSON bool) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Adapter exposes a slog.Logger through the printf-style Logger interface
// of the simulator core.
type Adapter struct {
	logger *slog.Logger
}

// NewAdapter wraps l. A nil logger discards everything.
func NewAdapter(l *slog.Logger) *Adapter {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{logger: l}
}

func (a *Adapter) logf(level slog.Level, format string, v ...any) {
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}
	a.logger.Log(ctx, level, fmt.Sprintf(format, v...))
}

func (a *Adapter) Tracef(format string, v ...any) { a.logf(LevelTrace, format, v...) }
func (a *Adapter) Debugf(format string, v ...any) { a.logf(slog.LevelDebug, format, v...) }
func (a *Adapter) Infof(format string, v ...any)  { a.logf(slog.LevelInfo, format, v...) }
func (a *Adapter) Warnf(format string, v ...any)  { a.logf(slog.LevelWarn, format, v...) }
func (a *Adapter) Errorf(format string, v ...any) { a.logf(slog.LevelError, format, v...) }
