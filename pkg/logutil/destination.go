package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Destination is a closed set of output formats. Only Local and GCP
// implement it.
type Destination interface {
	destination()
}

// Local writes one colored console line per entry.
type Local struct {
	Writer     io.Writer
	TimeFormat string
	NoColor    bool
}

// GCP writes one JSON object per entry, using the field names that
// structured cloud logging understands.
type GCP struct {
	Writer io.Writer
}

func (Local) destination() {}
func (GCP) destination()   {}

func newHandler(dst Destination, level slog.Leveler) slog.Handler {
	switch d := dst.(type) {
	case Local:
		timeFormat := d.TimeFormat
		if timeFormat == "" {
			timeFormat = time.TimeOnly
		}
		return tint.NewHandler(d.Writer, &tint.Options{
			Level:      level,
			TimeFormat: timeFormat,
			NoColor:    d.NoColor,
		})
	case GCP:
		return slog.NewJSONHandler(d.Writer, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: gcpReplaceAttr,
		})
	default:
		panic(fmt.Sprintf("unhandled log destination %T", dst))
	}
}

func emit(ctx context.Context, dst Destination, l *slog.Logger, e Entry) {
	switch dst.(type) {
	case Local:
		l.Log(ctx, e.Type.Level(), e.Line())
	case GCP:
		l.LogAttrs(ctx, e.Type.Level(), e.Message, e.Attrs()...)
	default:
		panic(fmt.Sprintf("unhandled log destination %T", dst))
	}
}

func gcpReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.LevelKey:
		level, _ := a.Value.Any().(slog.Level)
		return slog.String("severity", gcpSeverity(level))
	case slog.MessageKey:
		a.Key = "message"
	}

	return a
}

func gcpSeverity(level slog.Level) string {
	switch {
	case level >= LevelFatal:
		return "CRITICAL"
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
