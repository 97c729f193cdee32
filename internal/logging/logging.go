// Package logging builds the process slog.Logger and adapts it for GORM.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a logger writing to w in "json" or "text" format.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard is a logger that drops everything. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// GormLogger adapts slog to GORM's logger.Interface. Queries go to DEBUG,
// slow queries and query errors (except record-not-found) to WARN.
type GormLogger struct {
	logger        *slog.Logger
	slowThreshold time.Duration
}

func NewGormLogger(logger *slog.Logger, slowThreshold time.Duration) *GormLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormLogger{logger: logger, slowThreshold: slowThreshold}
}

// LogMode is a no-op; levels come from the slog handler.
func (g *GormLogger) LogMode(_ gormlogger.LogLevel) gormlogger.Interface {
	return g
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	g.logger.DebugContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	g.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	g.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		g.logger.WarnContext(ctx, "query error",
			"sql", sql,
			"rows_affected", rows,
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold:
		g.logger.WarnContext(ctx, "slow query",
			"sql", sql,
			"rows_affected", rows,
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", g.slowThreshold.Milliseconds())
	default:
		g.logger.DebugContext(ctx, "query",
			"sql", sql,
			"rows_affected", rows,
			"duration_ms", elapsed.Milliseconds())
	}
}
