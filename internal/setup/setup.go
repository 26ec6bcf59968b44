package setup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robalyx/tribunal/internal/auth"
	"github.com/robalyx/tribunal/internal/database"
	"github.com/robalyx/tribunal/internal/database/migrations"
	"github.com/robalyx/tribunal/internal/database/service"
	"github.com/robalyx/tribunal/internal/notify"
	"github.com/robalyx/tribunal/internal/redis"
	"github.com/robalyx/tribunal/internal/setup/config"
	"github.com/robalyx/tribunal/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// Version is the build version reported in traces.
var Version = "dev"

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config       *config.Config          // Application configuration
	Logger       *zap.Logger             // Main application logger
	DBLogger     *zap.Logger             // Database-specific logger
	DB           database.Client         // Database connection pool
	Auth         *auth.Service           // Staff token service
	RedisManager *redis.Manager          // Redis connection manager, nil when disabled
	Notifier     *notify.DiscordNotifier // Staff notifications, nil when disabled
	LogManager   *telemetry.Manager      // Log management system
}

// InitializeApp bootstraps all application dependencies in the correct order.
// Pending migrations are applied when autoMigrate is set, otherwise the
// operator is asked for confirmation.
func InitializeApp(
	ctx context.Context, serviceType telemetry.ServiceType, logDir string, autoMigrate bool,
) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, &cfg.Common.Telemetry, Version)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		DBLogger:   dbLogger.Named("database"),
		LogManager: logManager,
	}

	authService, err := auth.NewService(&cfg.API.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}
	app.Auth = authService

	var opts []service.Option

	// Redis backs the statistics cache when enabled
	if cfg.Common.Redis.Enabled {
		app.RedisManager = redis.NewManager(&cfg.Common.Redis, logger)

		client, err := app.RedisManager.Connect(ctx)
		if err != nil {
			return nil, err
		}

		ttl := time.Duration(cfg.Common.Redis.StatsTTL) * time.Second
		opts = append(opts, service.WithStatsCache(redis.NewStatsCache(client, ttl, logger)))
	}

	// Discord webhook notifications when configured
	if cfg.API.Notify.WebhookURL != "" {
		notifier, err := notify.NewDiscordNotifier(cfg.API.Notify.WebhookURL, cfg.API.Notify.DashboardURL, logger)
		if err != nil {
			return nil, err
		}
		app.Notifier = notifier
		opts = append(opts, service.WithNotifier(notifier))
	}

	db, err := checkAndRunMigrations(ctx, &cfg.Common.Database, app.DBLogger, autoMigrate, opts...)
	if err != nil {
		app.closeClients(ctx)
		return nil, err
	}
	app.DB = db

	logger.Info("Application initialized",
		zap.String("component", serviceType.String()),
		zap.String("version", Version),
		zap.Bool("redis", app.RedisManager != nil),
		zap.Bool("notifications", app.Notifier != nil))

	return app, nil
}

// Cleanup shuts down all components in reverse initialization order.
// Cleanup errors are logged so every component gets a chance to close.
func (s *App) Cleanup(ctx context.Context) {
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}

	s.closeClients(ctx)

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	s.LogManager.Stop(ctx)
}

// closeClients waits for pending notifications and closes Redis.
func (s *App) closeClients(ctx context.Context) {
	if s.Notifier != nil {
		s.Notifier.Close(ctx)
	}
	if s.RedisManager != nil {
		s.RedisManager.Close()
	}
}

// checkAndRunMigrations opens the database and applies pending migrations.
func checkAndRunMigrations(
	ctx context.Context, cfg *config.Database, dbLogger *zap.Logger, autoMigrate bool, opts ...service.Option,
) (database.Client, error) {
	if autoMigrate {
		return database.NewConnection(ctx, cfg, dbLogger, true, opts...)
	}

	db, err := database.NewConnection(ctx, cfg, dbLogger, false, opts...)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return db, nil
	}

	log.Printf("Database has %d pending migrations. Would you like to run them now? (y/N)", len(unapplied))

	var response string
	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		db.Close()
		return nil, ErrMigrationsPending
	}

	if _, err := migrator.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
