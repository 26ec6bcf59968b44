package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.3.0"

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentAPIVersion    = 1
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	API    APIConfig    `koanf:"api"`
}

// CommonConfig contains configuration shared between the API server and tools.
type CommonConfig struct {
	// Version of the common config.
	Version   int       `koanf:"version"`
	Debug     Debug     `koanf:"debug"`
	Database  Database  `koanf:"database"`
	Redis     Redis     `koanf:"redis"`
	Telemetry Telemetry `koanf:"telemetry"`
}

// APIConfig contains REST server specific configuration.
type APIConfig struct {
	// Version of the api config.
	Version int `koanf:"version"`
	// Request timeout in milliseconds.
	RequestTimeout int       `koanf:"request_timeout"`
	Server         Server    `koanf:"server"`
	Auth           Auth      `koanf:"auth"`
	IP             IPConfig  `koanf:"ip"`
	RateLimit      RateLimit `koanf:"rate_limit"`
	Notify         Notify    `koanf:"notify"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level" env:"TRIBUNAL_LOG_LEVEL"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Database contains database connection configuration.
type Database struct {
	// Driver selects the store backend (postgres or sqlite).
	Driver string `koanf:"driver" env:"TRIBUNAL_DATABASE_DRIVER"`
	// Database hostname.
	Host string `koanf:"host" env:"TRIBUNAL_DATABASE_HOST"`
	// Database port.
	Port int `koanf:"port" env:"TRIBUNAL_DATABASE_PORT"`
	// Database username.
	User string `koanf:"user" env:"TRIBUNAL_DATABASE_USER"`
	// Database password.
	Password string `koanf:"password" env:"TRIBUNAL_DATABASE_PASSWORD"`
	// Database name.
	DBName string `koanf:"db_name" env:"TRIBUNAL_DATABASE_NAME"`
	// SQLite database file (":memory:" for a throwaway store).
	Path string `koanf:"path" env:"TRIBUNAL_DATABASE_PATH"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Enable the Redis-backed caches.
	Enabled bool `koanf:"enabled" env:"TRIBUNAL_REDIS_ENABLED"`
	// Redis hostname.
	Host string `koanf:"host" env:"TRIBUNAL_REDIS_HOST"`
	// Redis port.
	Port int `koanf:"port" env:"TRIBUNAL_REDIS_PORT"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password" env:"TRIBUNAL_REDIS_PASSWORD"`
	// Seconds the appeal statistics stay cached.
	StatsTTL int `koanf:"stats_ttl"`
}

// Telemetry contains tracing configuration.
type Telemetry struct {
	// Uptrace DSN. Tracing is disabled when empty.
	UptraceDSN string `koanf:"uptrace_dsn" env:"TRIBUNAL_UPTRACE_DSN"`
	// Service name reported with every span.
	ServiceName string `koanf:"service_name"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Host string `koanf:"host" env:"TRIBUNAL_API_HOST"`
	Port int    `koanf:"port" env:"TRIBUNAL_API_PORT"`
}

// Auth contains staff token verification configuration.
type Auth struct {
	// HMAC secret shared with the staff identity provider.
	JWTSecret string `koanf:"jwt_secret" env:"TRIBUNAL_JWT_SECRET"`
	// Expected token issuer. Not checked when empty.
	Issuer string `koanf:"issuer"`
	// Lifetime of issued tokens in minutes.
	TokenTTL int `koanf:"token_ttl"`
	// Minimum authority level allowed to close appeals.
	DeleteAuthority int `koanf:"delete_authority"`
}

// IPConfig contains client IP detection configuration.
type IPConfig struct {
	// Read client IPs from proxy headers.
	EnableHeaderCheck bool `koanf:"enable_header_check"`
	// Proxies whose headers are trusted (CIDR notation).
	TrustedProxies []string `koanf:"trusted_proxies"`
	// Headers checked in order for the client IP.
	CustomHeaders []string `koanf:"custom_headers"`
	// Accept private and loopback addresses.
	AllowLocalIPs bool `koanf:"allow_local_ips"`
}

// RateLimit contains submission rate limit configuration.
type RateLimit struct {
	// Allowed submissions per second per client.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Maximum burst per client.
	BurstSize int `koanf:"burst_size"`
	// Violations before a client is blocked.
	StrikeLimit int `koanf:"strike_limit"`
	// Block duration in seconds.
	BlockDuration int `koanf:"block_duration"`
}

// Notify contains staff notification configuration.
type Notify struct {
	// Discord webhook URL. Notifications are disabled when empty.
	WebhookURL string `koanf:"webhook_url" env:"TRIBUNAL_WEBHOOK_URL"`
	// Public dashboard URL used in notification links.
	DashboardURL string `koanf:"dashboard_url"`
}

// LoadConfig loads the configuration from the config search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".tribunal",
		homeDir + "/.tribunal/config",
		"/etc/tribunal/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	configFiles := []string{"common", "api"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)

			// Each file is mounted under its own namespace
			fileConfig := koanf.New(".")
			if err := fileConfig.Load(file.Provider(configPath), toml.Parser()); err != nil {
				continue
			}
			if err := k.MergeAt(fileConfig, configName); err != nil {
				return nil, "", fmt.Errorf("failed to merge %s: %w", configPath, err)
			}

			configLoaded = true
			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	config, err := parse(k)
	if err != nil {
		return nil, "", err
	}

	return config, usedConfigPath, nil
}

// parse unmarshals the loaded files, applies environment overrides and defaults,
// then checks the config versions.
func parse(k *koanf.Koanf) (*Config, error) {
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("error parsing environment overrides: %w", err)
	}

	config.applyDefaults()

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills in values that must never be zero.
func (c *Config) applyDefaults() {
	if c.Common.Debug.LogLevel == "" {
		c.Common.Debug.LogLevel = "info"
	}
	if c.Common.Debug.MaxLogsToKeep <= 0 {
		c.Common.Debug.MaxLogsToKeep = 10
	}
	if c.Common.Debug.MaxLogLines <= 0 {
		c.Common.Debug.MaxLogLines = 100000
	}
	if c.Common.Database.Driver == "" {
		c.Common.Database.Driver = DriverPostgres
	}
	if c.Common.Redis.StatsTTL <= 0 {
		c.Common.Redis.StatsTTL = 60
	}
	if c.Common.Telemetry.ServiceName == "" {
		c.Common.Telemetry.ServiceName = "tribunal"
	}
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = 10000
	}
	if c.API.Server.Port == 0 {
		c.API.Server.Port = 8080
	}
	if c.API.Auth.TokenTTL <= 0 {
		c.API.Auth.TokenTTL = 720
	}
	if c.API.Auth.DeleteAuthority <= 0 {
		c.API.Auth.DeleteAuthority = 4
	}
	if c.API.RateLimit.RequestsPerSecond <= 0 {
		c.API.RateLimit.RequestsPerSecond = 0.1
	}
	if c.API.RateLimit.BurstSize <= 0 {
		c.API.RateLimit.BurstSize = 3
	}
	if c.API.RateLimit.StrikeLimit <= 0 {
		c.API.RateLimit.StrikeLimit = 5
	}
	if c.API.RateLimit.BlockDuration <= 0 {
		c.API.RateLimit.BlockDuration = 600
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/tribunal/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
