package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []struct {
			model   any
			name    string
			columns []string
		}{
			// Pending lookup on submission
			{(*types.Appeal)(nil), "idx_appeals_discord_status", []string{"discord_id", "status"}},
			// Listing filters and ordering
			{(*types.Appeal)(nil), "idx_appeals_status", []string{"status"}},
			{(*types.Appeal)(nil), "idx_appeals_priority_created", []string{"priority", "created_at"}},
			{(*types.Appeal)(nil), "idx_appeals_assigned_to", []string{"assigned_to"}},
			// Response time aggregation
			{(*types.Appeal)(nil), "idx_appeals_reviewed_at", []string{"reviewed_at"}},
			// Thread and audit reads
			{(*types.AppealMessage)(nil), "idx_appeal_messages_appeal_created", []string{"appeal_id", "created_at"}},
			{(*types.AppealHistory)(nil), "idx_appeal_histories_appeal_created", []string{"appeal_id", "created_at"}},
		}

		for _, index := range indexes {
			_, err := db.NewCreateIndex().
				Model(index.model).
				Index(index.name).
				Column(index.columns...).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create index %s: %w", index.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		names := []string{
			"idx_appeals_discord_status",
			"idx_appeals_status",
			"idx_appeals_priority_created",
			"idx_appeals_assigned_to",
			"idx_appeals_reviewed_at",
			"idx_appeal_messages_appeal_created",
			"idx_appeal_histories_appeal_created",
		}

		for _, name := range names {
			_, err := db.NewDropIndex().
				Index(name).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop index %s: %w", name, err)
			}
		}

		return nil
	})
}
