package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/robalyx/tribunal/internal/database/types"
	"go.uber.org/zap"
)

// StatsKey identifies the cached appeal statistics.
const StatsKey = "tribunal:appeal_stats"

// StatsCache keeps the global appeal statistics in Redis for a short time
// so dashboards polling the stats endpoint do not rescan the appeals table.
type StatsCache struct {
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsCache creates a statistics cache on the given client.
func NewStatsCache(client rueidis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("stats_cache"),
	}
}

// GetStats returns the cached statistics and true, or nil and false on a miss.
func (c *StatsCache) GetStats(ctx context.Context) (*types.AppealStats, bool, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(StatsKey).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get appeal stats: %w", err)
	}

	var stats types.AppealStats
	if err := sonic.Unmarshal(data, &stats); err != nil {
		c.logger.Warn("Invalid appeal stats in cache", zap.Error(err))
		return nil, false, fmt.Errorf("failed to decode appeal stats: %w", err)
	}

	return &stats, true, nil
}

// SetStats stores the statistics until the TTL expires.
func (c *StatsCache) SetStats(ctx context.Context, stats *types.AppealStats) error {
	data, err := sonic.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode appeal stats: %w", err)
	}

	err = c.client.Do(ctx, c.client.B().Set().Key(StatsKey).Value(rueidis.BinaryString(data)).Ex(c.ttl).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to set appeal stats: %w", err)
	}

	c.logger.Debug("Cached appeal stats", zap.Int("total", stats.Total))
	return nil
}

// InvalidateStats removes the cached statistics.
func (c *StatsCache) InvalidateStats(ctx context.Context) error {
	err := c.client.Do(ctx, c.client.B().Del().Key(StatsKey).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to invalidate appeal stats: %w", err)
	}
	return nil
}
