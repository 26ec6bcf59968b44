package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/robalyx/tribunal/pkg/utils"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const (
	slowQueryThreshold = 500 * time.Millisecond
	maxLoggedQuery     = 2000
)

// Hook logs executed queries. Failures and slow queries are raised above debug.
type Hook struct {
	logger *zap.Logger
	slow   time.Duration
}

// NewHook creates a query logging hook.
func NewHook(logger *zap.Logger) *Hook {
	return &Hook{
		logger: logger.Named("query"),
		slow:   slowQueryThreshold,
	}
}

func (h *Hook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *Hook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.String("query", utils.Truncate(event.Query, maxLoggedQuery)),
		zap.Duration("duration", elapsed),
	}

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		h.logger.Error("Query failed", append(fields, zap.Error(event.Err))...)
	case elapsed >= h.slow:
		h.logger.Warn("Slow query", fields...)
	default:
		h.logger.Debug("Query executed", fields...)
	}
}
