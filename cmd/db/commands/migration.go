package commands

import (
	"context"
	"fmt"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MigrationCommands returns all migration-related commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "init",
			Usage:  "Initialize migration tables",
			Action: handleInit(deps),
		},
		{
			Name:  "migrate",
			Usage: "Run pending migrations",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "mark-only",
					Usage: "Record pending migrations as applied without running them",
				},
			},
			Action: handleMigrate(deps),
		},
		{
			Name:   "rollback",
			Usage:  "Rollback the last migration group",
			Action: handleRollback(deps),
		},
		{
			Name:   "unlock",
			Usage:  "Release a stale migration lock",
			Action: handleUnlock(deps),
		},
		{
			Name:   "status",
			Usage:  "Show migration status",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new migration file",
			ArgsUsage: "NAME",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "sql",
					Usage: "Create up and down SQL files instead of a Go migration",
				},
			},
			Action: handleCreate(deps),
		},
	}
}

// handleInit creates the bookkeeping tables.
func handleInit(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Init(ctx); err != nil {
			return err
		}

		deps.Logger.Info("Created migration tables")
		return nil
	}
}

// withLock runs fn while holding the migration lock.
func withLock(ctx context.Context, deps *CLIDependencies, fn func() error) error {
	if err := deps.Migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := deps.Migrator.Unlock(ctx); err != nil {
			deps.Logger.Warn("Failed to release migration lock", zap.Error(err))
		}
	}()
	return fn()
}

// handleMigrate applies pending migrations. With --mark-only the migrations
// are recorded as applied without running them.
func handleMigrate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		var opts []migrate.MigrationOption
		if c.Bool("mark-only") {
			opts = append(opts, migrate.WithNopMigration())
		}

		return withLock(ctx, deps, func() error {
			group, err := deps.Migrator.Migrate(ctx, opts...)
			if err != nil {
				return err
			}
			if group.IsZero() {
				deps.Logger.Info("Schema is up to date")
				return nil
			}

			deps.Logger.Info("Applied migration group",
				zap.Int64("group", group.ID),
				zap.Strings("migrations", migrationNames(group.Migrations)),
				zap.Bool("markOnly", c.Bool("mark-only")))
			return nil
		})
	}
}

// handleRollback reverts the most recent migration group.
func handleRollback(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		return withLock(ctx, deps, func() error {
			group, err := deps.Migrator.Rollback(ctx)
			if err != nil {
				return err
			}
			if group.IsZero() {
				deps.Logger.Info("Nothing to roll back")
				return nil
			}

			deps.Logger.Info("Rolled back migration group",
				zap.Int64("group", group.ID),
				zap.Strings("migrations", migrationNames(group.Migrations)))
			return nil
		})
	}
}

// handleUnlock clears a lock left behind by an interrupted run.
func handleUnlock(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Unlock(ctx); err != nil {
			return err
		}
		deps.Logger.Info("Released migration lock")
		return nil
	}
}

func migrationNames(ms migrate.MigrationSlice) []string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, m.Name)
	}
	return names
}

// handleStatus logs every known migration and when it was applied.
func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return err
		}

		for _, m := range ms {
			fields := []zap.Field{
				zap.String("name", m.Name),
				zap.Int64("group", m.GroupID),
			}
			if m.IsApplied() {
				fields = append(fields, zap.Time("migratedAt", m.MigratedAt))
			} else {
				fields = append(fields, zap.Bool("pending", true))
			}
			deps.Logger.Info("Migration", fields...)
		}

		deps.Logger.Info("Migration status",
			zap.Int("total", len(ms)),
			zap.Int("pending", len(ms.Unapplied())),
			zap.String("lastGroup", ms.LastGroup().String()))

		return nil
	}
}

// handleCreate writes a new migration skeleton into the migrations package.
func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}
		name := c.Args().First()

		if c.Bool("sql") {
			files, err := deps.Migrator.CreateSQLMigrations(ctx, name)
			if err != nil {
				return err
			}
			for _, mf := range files {
				deps.Logger.Info("Created SQL migration",
					zap.String("name", mf.Name),
					zap.String("path", mf.Path),
				)
			}
			return nil
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, name)
		if err != nil {
			return err
		}

		deps.Logger.Info("Created Go migration",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path),
		)

		return nil
	}
}
