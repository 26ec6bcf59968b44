package service

import (
	"context"
	"time"

	"github.com/robalyx/tribunal/internal/database/types"
)

// StatsCache caches the global appeal statistics.
type StatsCache interface {
	// GetStats returns the cached statistics and whether they were present.
	GetStats(ctx context.Context) (*types.AppealStats, bool, error)
	// SetStats stores the statistics.
	SetStats(ctx context.Context, stats *types.AppealStats) error
	// InvalidateStats drops the cached statistics.
	InvalidateStats(ctx context.Context) error
}

// Notifier receives appeal lifecycle events.
// Implementations must not block the caller.
type Notifier interface {
	AppealSubmitted(ctx context.Context, appeal *types.Appeal)
	AppealEscalated(ctx context.Context, appeal *types.Appeal, performedBy string)
}

// Option configures an AppealService.
type Option func(*AppealService)

// WithStatsCache enables caching of appeal statistics.
func WithStatsCache(cache StatsCache) Option {
	return func(s *AppealService) {
		s.cache = cache
	}
}

// WithNotifier registers a notifier for submissions and escalations.
func WithNotifier(notifier Notifier) Option {
	return func(s *AppealService) {
		s.notifier = notifier
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *AppealService) {
		s.now = func() time.Time {
			return now().UTC().Truncate(time.Microsecond)
		}
	}
}

// WithIDGenerator replaces the appeal ID generator.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(s *AppealService) {
		s.generateID = generate
	}
}
