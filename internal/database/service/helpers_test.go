package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/robalyx/tribunal/internal/database"
	"github.com/robalyx/tribunal/internal/database/service"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/internal/setup/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testClock is a manually advanced time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// setupTest opens a migrated in-memory store and returns its appeal service.
func setupTest(t *testing.T, opts ...service.Option) (*service.AppealService, *testClock) {
	t.Helper()
	client, clock := setupTestClient(t, opts...)
	return client.Service().Appeal(), clock
}

// setupTestClient opens a migrated in-memory store.
func setupTestClient(t *testing.T, opts ...service.Option) (database.Client, *testClock) {
	t.Helper()

	clock := newTestClock()
	opts = append([]service.Option{service.WithClock(clock.Now)}, opts...)

	cfg := &config.Database{Driver: config.DriverSQLite, Path: ":memory:"}
	client, err := database.NewConnection(context.Background(), cfg, zap.NewNop(), true, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, clock
}

// submission returns a valid submission for the given Discord user.
func submission(discordID string) *types.AppealSubmission {
	return &types.AppealSubmission{
		DiscordID:       discordID,
		DiscordUsername: "user" + discordID[len(discordID)-4:],
		Email:           "appellant" + discordID[len(discordID)-4:] + "@example.com",
		AppealType:      "ban",
		BanReason:       "spam",
		AppealMessage:   "I was hacked, please review.",
		IPAddress:       "203.0.113.7",
	}
}

// mustSubmit submits a valid appeal and fails the test on error.
func mustSubmit(t *testing.T, svc *service.AppealService, discordID string) *types.Appeal {
	t.Helper()
	appeal, err := svc.Submit(t.Context(), submission(discordID))
	require.NoError(t, err)
	return appeal
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) AppealSubmitted(ctx context.Context, appeal *types.Appeal) {
	m.Called(ctx, appeal)
}

func (m *mockNotifier) AppealEscalated(ctx context.Context, appeal *types.Appeal, performedBy string) {
	m.Called(ctx, appeal, performedBy)
}

type mockStatsCache struct {
	mock.Mock
}

func (m *mockStatsCache) GetStats(ctx context.Context) (*types.AppealStats, bool, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*types.AppealStats)
	return stats, args.Bool(1), args.Error(2)
}

func (m *mockStatsCache) SetStats(ctx context.Context, stats *types.AppealStats) error {
	return m.Called(ctx, stats).Error(0)
}

func (m *mockStatsCache) InvalidateStats(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
