package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/internal/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) (*redis.StatsCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return redis.NewStatsCache(client, time.Minute, zap.NewNop()), mr
}

func TestStatsCacheMiss(t *testing.T) {
	t.Parallel()
	cache, _ := setupTest(t)

	stats, ok, err := cache.GetStats(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, stats)
}

func TestStatsCacheRoundTrip(t *testing.T) {
	t.Parallel()
	cache, mr := setupTest(t)
	ctx := t.Context()

	want := &types.AppealStats{
		Total:           7,
		Pending:         3,
		UnderReview:     1,
		Approved:        2,
		Denied:          1,
		AvgResponseTime: 3,
	}
	require.NoError(t, cache.SetStats(ctx, want))

	got, ok, err := cache.GetStats(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	ttl := mr.TTL(redis.StatsKey)
	assert.Equal(t, time.Minute, ttl)
}

func TestStatsCacheExpires(t *testing.T) {
	t.Parallel()
	cache, mr := setupTest(t)
	ctx := t.Context()

	require.NoError(t, cache.SetStats(ctx, &types.AppealStats{Total: 1}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatsCacheInvalidate(t *testing.T) {
	t.Parallel()
	cache, mr := setupTest(t)
	ctx := t.Context()

	require.NoError(t, cache.SetStats(ctx, &types.AppealStats{Total: 1}))
	require.NoError(t, cache.InvalidateStats(ctx))
	assert.False(t, mr.Exists(redis.StatsKey))

	// Invalidating a missing key is not an error
	require.NoError(t, cache.InvalidateStats(ctx))
}

func TestStatsCacheCorruptValue(t *testing.T) {
	t.Parallel()
	cache, mr := setupTest(t)

	require.NoError(t, mr.Set(redis.StatsKey, "not json"))

	_, ok, err := cache.GetStats(t.Context())
	require.Error(t, err)
	assert.False(t, ok)
}
