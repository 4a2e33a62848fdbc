package sensego

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/sensego/strategy"
)

// Logger wraps slog.Logger with sensego-specific context.
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

// WithRunID tags the logger with the id of one engine run.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithStrategy adds a strategy field to the logger.
func (l *Logger) WithStrategy(kind strategy.Kind) *Logger {
	return &Logger{
		Logger: l.Logger.With("strategy", kind.String()),
	}
}

// WithDocument adds a document field to the logger.
func (l *Logger) WithDocument(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("document", id),
	}
}

// LogDisambiguate logs a disambiguation run.
func (l *Logger) LogDisambiguate(ctx context.Context, docID string, score float64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "disambiguation failed",
			"document", docID,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "disambiguation completed",
			"document", docID,
			"score", score,
			"elapsed", elapsed,
		)
	}
}

// LogTuning logs a parameter search.
func (l *Logger) LogTuning(ctx context.Context, kind strategy.Kind, evaluations int, best float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tuning failed",
			"strategy", kind.String(),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tuning completed",
			"strategy", kind.String(),
			"evaluations", evaluations,
			"best", best,
		)
	}
}

// LogSnapshot logs a score cache snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot "+op+" completed",
			"name", name,
		)
	}
}
