package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/robalyx/tribunal/internal/database/dbretry"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// priorityRankExpr orders urgent appeals first and unknown priorities last.
var priorityRankExpr = "CASE priority " + //nolint:gochecknoglobals // -
	"WHEN '" + enum.AppealPriorityUrgent.String() + "' THEN 0 " +
	"WHEN '" + enum.AppealPriorityHigh.String() + "' THEN 1 " +
	"WHEN '" + enum.AppealPriorityNormal.String() + "' THEN 2 " +
	"ELSE 3 END ASC"

// likeEscaper escapes LIKE metacharacters using '!' as the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_") //nolint:gochecknoglobals // -

// AppealModel handles database operations for appeals.
type AppealModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAppeal creates a new appeal model.
func NewAppeal(db *bun.DB, logger *zap.Logger) *AppealModel {
	return &AppealModel{
		db:     db,
		logger: logger.Named("db_appeal"),
	}
}

// CreateWithTx inserts a new appeal using the provided transaction.
func (r *AppealModel) CreateWithTx(ctx context.Context, tx bun.IDB, appeal *types.Appeal) error {
	_, err := tx.NewInsert().
		Model(appeal).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create appeal: %w (appealID=%s)", err, appeal.ID)
	}

	r.logger.Debug("Created appeal",
		zap.String("appealID", appeal.ID),
		zap.String("discordID", appeal.DiscordID))

	return nil
}

// ExistsWithTx checks whether an appeal with the given ID exists.
func (r *AppealModel) ExistsWithTx(ctx context.Context, tx bun.IDB, id string) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*types.Appeal)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check appeal existence: %w (appealID=%s)", err, id)
	}
	return exists, nil
}

// GetPendingIDByDiscordID returns the ID of the pending appeal of a Discord user.
// Returns an empty string when the user has no pending appeal.
func (r *AppealModel) GetPendingIDByDiscordID(ctx context.Context, discordID string) (string, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (string, error) {
		var id string
		err := r.db.NewSelect().
			Model((*types.Appeal)(nil)).
			Column("id").
			Where("discord_id = ?", discordID).
			Where("status = ?", enum.AppealStatusPending).
			Order("created_at DESC").
			Limit(1).
			Scan(ctx, &id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", nil
			}
			return "", fmt.Errorf("failed to get pending appeal: %w (discordID=%s)", err, discordID)
		}
		return id, nil
	})
}

// GetByID retrieves an appeal by its ID.
func (r *AppealModel) GetByID(ctx context.Context, id string) (*types.Appeal, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Appeal, error) {
		return r.GetByIDWithTx(ctx, r.db, id)
	})
}

// GetByIDWithTx retrieves an appeal by its ID using the provided transaction.
// Returns types.ErrAppealNotFound when no appeal matches.
func (r *AppealModel) GetByIDWithTx(ctx context.Context, tx bun.IDB, id string) (*types.Appeal, error) {
	var appeal types.Appeal
	err := tx.NewSelect().
		Model(&appeal).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAppealNotFound
		}
		return nil, fmt.Errorf("failed to get appeal: %w (appealID=%s)", err, id)
	}
	return &appeal, nil
}

// UpdateWithTx writes the given columns of an appeal using the provided transaction.
// The updated_at column is always written.
func (r *AppealModel) UpdateWithTx(ctx context.Context, tx bun.IDB, appeal *types.Appeal, columns ...string) error {
	columns = append(columns, "updated_at")

	result, err := tx.NewUpdate().
		Model(appeal).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update appeal: %w (appealID=%s)", err, appeal.ID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w (appealID=%s)", err, appeal.ID)
	}
	if affected == 0 {
		return types.ErrAppealNotFound
	}

	return nil
}

// List retrieves one page of appeals matching the filter along with the
// total number of matching appeals.
func (r *AppealModel) List(
	ctx context.Context, filter types.AppealFilter, limit, offset int,
) ([]*types.Appeal, int, error) {
	applyFilters := func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		if filter.Priority != nil {
			q = q.Where("priority = ?", *filter.Priority)
		}
		if filter.AssignedTo != "" {
			q = q.Where("assigned_to = ?", filter.AssignedTo)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					WhereOr("LOWER(discord_id) LIKE ? ESCAPE '!'", pattern).
					WhereOr("LOWER(discord_username) LIKE ? ESCAPE '!'", pattern).
					WhereOr("LOWER(email) LIKE ? ESCAPE '!'", pattern).
					WhereOr("LOWER(id) LIKE ? ESCAPE '!'", pattern)
			})
		}
		return q
	}

	var (
		appeals []*types.Appeal
		total   int
	)

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		var err error
		total, err = applyFilters(r.db.NewSelect().Model((*types.Appeal)(nil))).Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count appeals: %w", err)
		}

		appeals = make([]*types.Appeal, 0, limit)
		err = applyFilters(r.db.NewSelect().Model(&appeals)).
			OrderExpr(priorityRankExpr).
			Order("created_at DESC", "id ASC").
			Limit(limit).
			Offset(offset).
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to list appeals: %w (limit=%d, offset=%d)", err, limit, offset)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return appeals, total, nil
}

// CountByStatus returns the number of appeals per stored status.
// Statuses without appeals are absent from the result.
func (r *AppealModel) CountByStatus(ctx context.Context) ([]types.AppealStatusCount, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.AppealStatusCount, error) {
		var counts []types.AppealStatusCount
		err := r.db.NewSelect().
			TableExpr("appeals").
			ColumnExpr("status, COUNT(*) AS count").
			Group("status").
			Scan(ctx, &counts)
		if err != nil {
			return nil, fmt.Errorf("failed to count appeals by status: %w", err)
		}
		return counts, nil
	})
}

// GetReviewDurations returns the creation and review times of every reviewed appeal.
func (r *AppealModel) GetReviewDurations(ctx context.Context) ([]types.ReviewDuration, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.ReviewDuration, error) {
		var durations []types.ReviewDuration
		err := r.db.NewSelect().
			TableExpr("appeals").
			ColumnExpr("created_at, reviewed_at").
			Where("reviewed_at IS NOT NULL").
			Scan(ctx, &durations)
		if err != nil {
			return nil, fmt.Errorf("failed to get review durations: %w", err)
		}
		return durations, nil
	})
}
