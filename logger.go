package pointview

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/pointview/field"
)

// Logger wraps slog.Logger with pointview-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithView adds a view field to the logger.
func (l *Logger) WithView(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("view", id),
	}
}

// WithField adds source and key fields to the logger.
func (l *Logger) WithField(ref field.Ref) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", ref.Source.String(), "field", ref.Key),
	}
}

// LogVisibility logs a visibility recompute.
func (l *Logger) LogVisibility(ctx context.Context, shown, total int, fastPath bool, d time.Duration) {
	l.DebugContext(ctx, "visibility recomputed",
		"shown", shown,
		"total", total,
		"fast_path", fastPath,
		"duration", d,
	)
}

// LogCategoryEdit logs a categorical edit.
func (l *Logger) LogCategoryEdit(ctx context.Context, ref field.Ref, edit, label string, inPlace bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "category edit failed",
			"field", ref.String(),
			"edit", edit,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "category edit applied",
			"field", ref.String(),
			"edit", edit,
			"label", label,
			"in_place", inPlace,
		)
	}
}

// LogLoad logs a field load.
func (l *Logger) LogLoad(ctx context.Context, ref field.Ref, shared bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "field load failed",
			"field", ref.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "field loaded",
			"field", ref.String(),
			"shared", shared,
		)
	}
}

// LogViewSwitch logs a view switch.
func (l *Logger) LogViewSwitch(ctx context.Context, from, to string, err error) {
	if err != nil {
		l.WarnContext(ctx, "view switch failed",
			"from", from,
			"to", to,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "view switched",
			"from", from,
			"to", to,
		)
	}
}

// LogValidation logs a rejected operation.
func (l *Logger) LogValidation(ctx context.Context, op string, err error) {
	l.WarnContext(ctx, "operation rejected",
		"op", op,
		"error", err,
	)
}

// LogBestEffort logs a failed post-condition of an applied edit.
func (l *Logger) LogBestEffort(ctx context.Context, op string, err error) {
	l.WarnContext(ctx, "post-condition failed",
		"op", op,
		"error", err,
	)
}
