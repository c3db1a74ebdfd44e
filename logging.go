package rapsqlite

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// LoggingConfig controls structured logging of dispatched steps.
type LoggingConfig struct {
	Enabled           bool
	Level             slog.Level
	SlowStepThreshold time.Duration
}

// dbLogger wraps an slog.Logger with the slow-step threshold a DB was
// configured with. It is a no-op when Enabled is false.
type dbLogger struct {
	enabled bool
	slow    time.Duration
	logger  *slog.Logger
}

func newDBLogger(cfg LoggingConfig) *dbLogger {
	if !cfg.Enabled {
		return &dbLogger{}
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	return &dbLogger{enabled: true, slow: cfg.SlowStepThreshold, logger: slog.New(handler)}
}

// logStep records one dispatched step. Arguments are never logged
// verbatim — only their count — since bound values may carry sensitive
// data the caller did not intend to persist to a log sink.
func (l *dbLogger) logStep(ctx context.Context, op opKind, sqlText string, argCount int, d time.Duration, err error) {
	if !l.enabled {
		return
	}
	attrs := []slog.Attr{
		slog.String("operation", opName(op)),
		slog.String("sql", sqlText),
		slog.Int("arg_count", argCount),
		slog.Float64("duration_ms", float64(d.Nanoseconds())/1e6),
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "error"), slog.String("error", err.Error()))
		l.logger.LogAttrs(ctx, slog.LevelError, "rapsqlite step", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "ok"))
	if l.slow > 0 && d > l.slow {
		l.logger.LogAttrs(ctx, slog.LevelWarn, "rapsqlite slow step", attrs...)
		return
	}
	l.logger.LogAttrs(ctx, slog.LevelDebug, "rapsqlite step", attrs...)
}

// logTransaction records a commit/rollback event.
func (l *dbLogger) logTransaction(ctx context.Context, event string, d time.Duration, err error) {
	if !l.enabled {
		return
	}
	attrs := []slog.Attr{
		slog.String("event", event),
		slog.Float64("duration_ms", float64(d.Nanoseconds())/1e6),
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "error"), slog.String("error", err.Error()))
		l.logger.LogAttrs(ctx, slog.LevelError, "rapsqlite transaction", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "ok"))
	l.logger.LogAttrs(ctx, slog.LevelInfo, "rapsqlite transaction", attrs...)
}
