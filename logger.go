package vecfield

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/vecfield/mapping"
)

// Logger wraps slog.Logger with field-mapping specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithField adds a field name to the logger.
func (l *Logger) WithField(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", name),
	}
}

// LogCompile logs a field compilation.
func (l *Logger) LogCompile(ctx context.Context, name string, variant mapping.VariantKind, err error) {
	if err != nil {
		l.WarnContext(ctx, "field compile failed",
			"field", name,
			"class", ClassConfig.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "field compiled",
		"field", name,
		"variant", string(variant),
	)
}

// LogParse logs a vector parse. Value errors are expected input problems and
// log at debug.
func (l *Logger) LogParse(ctx context.Context, field string, id uint32, err error) {
	if err != nil {
		class := Classify(err)
		level := slog.LevelDebug
		if class != ClassValue {
			level = slog.LevelError
		}
		l.Log(ctx, level, "vector parse failed",
			"field", field,
			"doc", id,
			"class", class.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "vector parsed",
		"field", field,
		"doc", id,
	)
}

// LogGuardRejection logs a document rejected by a runtime guard.
func (l *Logger) LogGuardRejection(ctx context.Context, field string, id uint32, err error) {
	l.WarnContext(ctx, "vector parse rejected",
		"field", field,
		"doc", id,
		"class", ClassGuard.String(),
		"reason", guardKind(err),
	)
}

// LogIgnoredMalformed logs a malformed value skipped by ignore_malformed.
func (l *Logger) LogIgnoredMalformed(ctx context.Context, field string, id uint32, err error) {
	l.DebugContext(ctx, "malformed vector ignored",
		"field", field,
		"doc", id,
		"class", ClassValue.String(),
		"error", err,
	)
}

// LogBatch logs a completed batch.
func (l *Logger) LogBatch(ctx context.Context, field string, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch index completed with failures",
			"field", field,
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
		return
	}
	l.InfoContext(ctx, "batch index completed",
		"field", field,
		"count", count,
	)
}
