package modsum

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fields specific to the summary pipeline.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler writing to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))}
}

// WithModule adds a module field to the logger.
func (l *Logger) WithModule(name string) *Logger {
	return &Logger{Logger: l.Logger.With("module", name)}
}

// LogIndex logs the result of indexing one compilation unit.
func (l *Logger) LogIndex(ctx context.Context, moduleName string, functions, witnessEntries, vtableEntries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "indexing failed", "module", moduleName, "error", err)
		return
	}
	l.InfoContext(ctx, "indexed module",
		"module", moduleName,
		"functions", functions,
		"witness_entries", witnessEntries,
		"vtable_entries", vtableEntries,
	)
}

// LogSerialize logs a summary write or read.
func (l *Logger) LogSerialize(ctx context.Context, path string, bytesWritten int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "serialize failed", "path", path, "error", err)
		return
	}
	l.DebugContext(ctx, "serialized summary", "path", path, "bytes", bytesWritten)
}

// LogMerge logs the result of merging N module indices.
func (l *Logger) LogMerge(ctx context.Context, modules, functions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed", "modules", modules, "error", err)
		return
	}
	l.InfoContext(ctx, "merged module summaries", "modules", modules, "functions", functions)
}

// LogLiveness logs the completion of a liveness run.
func (l *Logger) LogLiveness(ctx context.Context, roots, live, total int) {
	l.InfoContext(ctx, "liveness complete",
		"roots", roots,
		"live", live,
		"total", total,
		"dead", total-live,
	)
}

// LogTrace logs that a trace dump was produced for a requested symbol.
func (l *Logger) LogTrace(ctx context.Context, symbol string, found bool) {
	if !found {
		l.WarnContext(ctx, "trace target not reached", "symbol", symbol)
		return
	}
	l.InfoContext(ctx, "trace dumped", "symbol", symbol)
}
