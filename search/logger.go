package search

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with search-specific fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler; nil uses a text handler
// to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger writing JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger writing text records to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithK adds the neighbor count field.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithIndex adds the index kind field.
func (l *Logger) WithIndex(kind string) *Logger {
	return &Logger{Logger: l.Logger.With("index", kind)}
}

// LogSearch logs a finished query.
func (l *Logger) LogSearch(ctx context.Context, k, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"k", k,
		"results", found,
	)
}

// LogBatch logs a finished batch of queries.
func (l *Logger) LogBatch(ctx context.Context, queries, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch search completed with failures",
			"queries", queries,
			"failed", failed,
		)
		return
	}
	l.InfoContext(ctx, "batch search completed", "queries", queries)
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, kind string, points int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"index", kind,
			"points", points,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"index", kind,
		"points", points,
	)
}
