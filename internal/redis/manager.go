package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/redis/rueidis"
	"github.com/robalyx/tribunal/internal/setup/config"
	"go.uber.org/zap"
)

// Manager owns the connection used by the Redis-backed caches.
type Manager struct {
	config *config.Redis
	logger *zap.Logger

	mu     sync.Mutex
	client rueidis.Client
}

// NewManager creates a manager. No connection is made until Connect.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		config: config,
		logger: logger.Named("redis"),
	}
}

// Connect dials Redis once and verifies the server answers. Later calls
// return the same client.
func (m *Manager) Connect(ctx context.Context) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
		Username:    m.config.Username,
		Password:    m.config.Password,
		ClientName:  "tribunal",
		// Only plain commands are issued; server-assisted caching stays off.
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis at %s did not answer ping: %w", addr, err)
	}

	m.client = client
	m.logger.Info("Connected to redis", zap.String("addr", addr))
	return client, nil
}

// Close releases the connection. It is a no-op when never connected.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return
	}
	m.client.Close()
	m.client = nil
	m.logger.Info("Closed redis connection")
}
