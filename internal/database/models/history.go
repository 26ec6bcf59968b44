package models

import (
	"context"
	"fmt"

	"github.com/robalyx/tribunal/internal/database/dbretry"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// HistoryModel handles database operations for the appeal audit trail.
type HistoryModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewHistory creates a new appeal history model.
func NewHistory(db *bun.DB, logger *zap.Logger) *HistoryModel {
	return &HistoryModel{
		db:     db,
		logger: logger.Named("db_history"),
	}
}

// CreateWithTx appends audit entries using the provided transaction.
func (r *HistoryModel) CreateWithTx(ctx context.Context, tx bun.IDB, entries ...*types.AppealHistory) error {
	for _, entry := range entries {
		_, err := tx.NewInsert().
			Model(entry).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create appeal history: %w (appealID=%s, action=%s)",
				err, entry.AppealID, entry.Action)
		}
	}

	r.logger.Debug("Recorded appeal history", zap.Int("entries", len(entries)))
	return nil
}

// GetByAppealID retrieves the audit trail of an appeal, newest first.
func (r *HistoryModel) GetByAppealID(ctx context.Context, appealID string) ([]*types.AppealHistory, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.AppealHistory, error) {
		history := make([]*types.AppealHistory, 0)
		err := r.db.NewSelect().
			Model(&history).
			Where("appeal_id = ?", appealID).
			Order("created_at DESC", "id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get appeal history: %w (appealID=%s)", err, appealID)
		}
		return history, nil
	})
}
