package models

import (
	"context"
	"fmt"

	"github.com/robalyx/tribunal/internal/database/dbretry"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// MessageModel handles database operations for appeal messages.
type MessageModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMessage creates a new appeal message model.
func NewMessage(db *bun.DB, logger *zap.Logger) *MessageModel {
	return &MessageModel{
		db:     db,
		logger: logger.Named("db_message"),
	}
}

// Create appends a message to an appeal thread.
func (r *MessageModel) Create(ctx context.Context, message *types.AppealMessage) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		return r.CreateWithTx(ctx, r.db, message)
	})
}

// CreateWithTx appends a message using the provided transaction.
func (r *MessageModel) CreateWithTx(ctx context.Context, tx bun.IDB, message *types.AppealMessage) error {
	_, err := tx.NewInsert().
		Model(message).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create appeal message: %w (appealID=%s)", err, message.AppealID)
	}
	return nil
}

// GetByAppealID retrieves the thread of an appeal, oldest first.
// Internal messages are omitted unless includeInternal is set.
func (r *MessageModel) GetByAppealID(
	ctx context.Context, appealID string, includeInternal bool,
) ([]*types.AppealMessage, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.AppealMessage, error) {
		messages := make([]*types.AppealMessage, 0)
		query := r.db.NewSelect().
			Model(&messages).
			Where("appeal_id = ?", appealID)

		if !includeInternal {
			query = query.Where("is_internal = ?", false)
		}

		err := query.
			Order("created_at ASC", "id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get appeal messages: %w (appealID=%s)", err, appealID)
		}
		return messages, nil
	})
}
