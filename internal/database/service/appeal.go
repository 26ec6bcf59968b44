package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/tribunal/internal/database/dbretry"
	"github.com/robalyx/tribunal/internal/database/models"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/internal/database/types/enum"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const (
	// DefaultListLimit is used when a listing does not request a page size.
	DefaultListLimit = 50
	// MaxListLimit caps the page size of a listing.
	MaxListLimit = 200
)

var (
	discordIDPattern = regexp.MustCompile(`^\d{17,19}$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// AppealService handles appeal-related business logic.
type AppealService struct {
	db         *bun.DB
	appeal     *models.AppealModel
	message    *models.MessageModel
	history    *models.HistoryModel
	cache      StatsCache
	notifier   Notifier
	now        func() time.Time
	generateID func() (string, error)
	logger     *zap.Logger

	// statsGeneration counts stats invalidations.
	statsGeneration atomic.Uint64
}

// NewAppeal creates a new appeal service.
func NewAppeal(
	db *bun.DB,
	appealModel *models.AppealModel,
	messageModel *models.MessageModel,
	historyModel *models.HistoryModel,
	logger *zap.Logger,
	opts ...Option,
) *AppealService {
	s := &AppealService{
		db:      db,
		appeal:  appealModel,
		message: messageModel,
		history: historyModel,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
		generateID: GenerateAppealID,
		logger:     logger.Named("appeal_service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Submit validates and stores a new appeal together with its CREATED audit
// entry and the appellant's opening message.
//
// The pending check runs before the write transaction, so two concurrent
// submissions for the same Discord user can both pass it.
func (s *AppealService) Submit(ctx context.Context, submission *types.AppealSubmission) (*types.Appeal, error) {
	discordID := strings.TrimSpace(submission.DiscordID)
	email := strings.TrimSpace(submission.Email)
	message := strings.TrimSpace(submission.AppealMessage)

	if discordID == "" || email == "" || message == "" {
		return nil, types.NewValidationError(types.MsgMissingFields)
	}
	if !discordIDPattern.MatchString(discordID) {
		return nil, types.NewValidationError(types.MsgInvalidDiscordID)
	}
	if !emailPattern.MatchString(email) {
		return nil, types.NewValidationError(types.MsgInvalidEmail)
	}

	pendingID, err := s.appeal.GetPendingIDByDiscordID(ctx, discordID)
	if err != nil {
		return nil, s.storageError("submit", "", err)
	}
	if pendingID != "" {
		return nil, &types.AlreadyPendingError{AppealID: pendingID}
	}

	now := s.now()
	appeal := &types.Appeal{
		DiscordID:       discordID,
		DiscordUsername: strings.TrimSpace(submission.DiscordUsername),
		Email:           email,
		AppealType:      strings.TrimSpace(submission.AppealType),
		BanReason:       strings.TrimSpace(submission.BanReason),
		AppealMessage:   message,
		Evidence:        strings.TrimSpace(submission.Evidence),
		Status:          enum.AppealStatusPending,
		Priority:        enum.AppealPriorityNormal,
		IPAddress:       submission.IPAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		id, err := s.allocateID(ctx, tx)
		if err != nil {
			return err
		}
		appeal.ID = id

		if err := s.appeal.CreateWithTx(ctx, tx, appeal); err != nil {
			return err
		}

		if err := s.history.CreateWithTx(ctx, tx, &types.AppealHistory{
			AppealID:  id,
			Action:    enum.HistoryActionCreated,
			NewValue:  enum.AppealStatusPending.String(),
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return s.message.CreateWithTx(ctx, tx, &types.AppealMessage{
			AppealID:   id,
			SenderType: enum.SenderTypeUser,
			SenderID:   discordID,
			SenderName: appeal.DiscordUsername,
			Message:    message,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, s.storageError("submit", "", err)
	}

	s.logger.Info("Appeal submitted",
		zap.String("appealID", appeal.ID),
		zap.String("discordID", appeal.DiscordID))

	s.invalidateStats(ctx)
	if s.notifier != nil {
		s.notifier.AppealSubmitted(ctx, appeal)
	}

	return appeal, nil
}

// allocateID generates appeal IDs until one is unused.
func (s *AppealService) allocateID(ctx context.Context, tx bun.IDB) (string, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := s.generateID()
		if err != nil {
			return "", err
		}

		exists, err := s.appeal.ExistsWithTx(ctx, tx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}

		s.logger.Warn("Appeal ID collision",
			zap.String("appealID", id),
			zap.Int("attempt", attempt))
	}

	return "", types.ErrIDExhausted
}

// Transition applies a staff patch to an appeal and records the resulting
// audit entries. An empty patch is a no-op.
//
// Any status may move to any other status. Setting approved or denied stamps
// the reviewer and review time even when the status is unchanged.
func (s *AppealService) Transition(
	ctx context.Context, id string, patch *types.AppealPatch, performedBy string,
) error {
	return s.Update(ctx, id, patch, nil, performedBy)
}

// Update applies a staff patch and appends an optional reply to the thread
// in a single transaction, so either both are stored or neither is.
// A call without patch fields or reply is a no-op.
func (s *AppealService) Update(
	ctx context.Context, id string, patch *types.AppealPatch, reply *types.AppealMessage, performedBy string,
) error {
	if patch.IsEmpty() && reply == nil {
		return nil
	}

	if !patch.IsEmpty() {
		if patch.Status != nil && !patch.Status.IsAAppealStatus() {
			return types.NewValidationError("invalid status %s", *patch.Status)
		}
		if patch.Priority != nil && !patch.Priority.IsAAppealPriority() {
			return types.NewValidationError("invalid priority %s", *patch.Priority)
		}
	}
	if reply != nil {
		if err := validateMessage(reply); err != nil {
			return err
		}
	}

	var (
		updated   *types.Appeal
		escalated bool
	)

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		appeal, err := s.appeal.GetByIDWithTx(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		escalated = false

		if !patch.IsEmpty() {
			columns, entries := applyPatch(appeal, patch, performedBy, now)
			appeal.UpdatedAt = now

			if err := s.appeal.UpdateWithTx(ctx, tx, appeal, columns...); err != nil {
				return err
			}
			if len(entries) > 0 {
				if err := s.history.CreateWithTx(ctx, tx, entries...); err != nil {
					return err
				}
			}

			for _, entry := range entries {
				if entry.Action == enum.HistoryActionStatusChanged &&
					entry.NewValue == enum.AppealStatusEscalated.String() {
					escalated = true
				}
			}
		}

		if reply != nil {
			reply.AppealID = id
			reply.CreatedAt = now
			if err := s.message.CreateWithTx(ctx, tx, reply); err != nil {
				return err
			}
		}

		updated = appeal
		return nil
	})
	if err != nil {
		return s.storageError("update", id, err)
	}

	s.logger.Info("Appeal updated",
		zap.String("appealID", id),
		zap.String("performedBy", performedBy),
		zap.String("status", updated.Status.String()),
		zap.String("priority", updated.Priority.String()),
		zap.Bool("replied", reply != nil))

	if !patch.IsEmpty() {
		s.invalidateStats(ctx)
	}
	if escalated && s.notifier != nil {
		s.notifier.AppealEscalated(ctx, updated, performedBy)
	}

	return nil
}

// applyPatch mutates the appeal according to the patch and returns the
// columns to write along with the audit entries for actual changes.
func applyPatch(
	appeal *types.Appeal, patch *types.AppealPatch, performedBy string, now time.Time,
) ([]string, []*types.AppealHistory) {
	var (
		columns []string
		entries []*types.AppealHistory
	)

	record := func(action enum.HistoryAction, oldValue, newValue string) {
		entries = append(entries, &types.AppealHistory{
			AppealID:    appeal.ID,
			Action:      action,
			OldValue:    oldValue,
			NewValue:    newValue,
			PerformedBy: performedBy,
			CreatedAt:   now,
		})
	}

	if patch.Status != nil {
		if *patch.Status != appeal.Status {
			record(enum.HistoryActionStatusChanged, appeal.Status.String(), patch.Status.String())
			appeal.Status = *patch.Status
			columns = append(columns, "status")
		}
		if patch.Status.IsTerminal() {
			appeal.ReviewedBy = performedBy
			appeal.ReviewedAt = now
			columns = append(columns, "reviewed_by", "reviewed_at")
		}
	}

	if patch.Priority != nil && *patch.Priority != appeal.Priority {
		record(enum.HistoryActionPriorityChanged, appeal.Priority.String(), patch.Priority.String())
		appeal.Priority = *patch.Priority
		columns = append(columns, "priority")
	}

	if patch.AssignedTo != nil {
		assignee := strings.TrimSpace(*patch.AssignedTo)
		if assignee != appeal.AssignedTo {
			record(enum.HistoryActionAssigned, appeal.AssignedTo, assignee)
			appeal.AssignedTo = assignee
			columns = append(columns, "assigned_to")
		}
	}

	if patch.ReviewNote != nil {
		appeal.ReviewNote = *patch.ReviewNote
		columns = append(columns, "review_note")
	}

	if patch.InternalNotes != nil {
		appeal.InternalNotes = *patch.InternalNotes
		columns = append(columns, "internal_notes")
	}

	return columns, entries
}

// Close soft-deletes an appeal. The appeal is denied, the closing reason is
// appended to its internal notes and a DELETED audit entry is written.
// Closed appeals stay readable.
func (s *AppealService) Close(ctx context.Context, id, performedBy, reason string) error {
	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		appeal, err := s.appeal.GetByIDWithTx(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		previous := appeal.Status

		note := fmt.Sprintf("[closed by %s at %s]: %s", performedBy, now.Format(time.RFC3339), strings.TrimSpace(reason))
		if appeal.InternalNotes != "" {
			appeal.InternalNotes += "\n" + note
		} else {
			appeal.InternalNotes = note
		}

		appeal.Status = enum.AppealStatusDenied
		appeal.ReviewedBy = performedBy
		appeal.ReviewedAt = now
		appeal.UpdatedAt = now

		err = s.appeal.UpdateWithTx(ctx, tx, appeal, "status", "reviewed_by", "reviewed_at", "internal_notes")
		if err != nil {
			return err
		}

		var entries []*types.AppealHistory
		if previous != enum.AppealStatusDenied {
			entries = append(entries, &types.AppealHistory{
				AppealID:    id,
				Action:      enum.HistoryActionStatusChanged,
				OldValue:    previous.String(),
				NewValue:    enum.AppealStatusDenied.String(),
				PerformedBy: performedBy,
				CreatedAt:   now,
			})
		}
		entries = append(entries, &types.AppealHistory{
			AppealID:    id,
			Action:      enum.HistoryActionDeleted,
			OldValue:    previous.String(),
			NewValue:    enum.AppealStatusDenied.String(),
			PerformedBy: performedBy,
			CreatedAt:   now,
		})

		return s.history.CreateWithTx(ctx, tx, entries...)
	})
	if err != nil {
		return s.storageError("close", id, err)
	}

	s.logger.Info("Appeal closed",
		zap.String("appealID", id),
		zap.String("performedBy", performedBy))

	s.invalidateStats(ctx)
	return nil
}

// AddMessage appends a message to an appeal thread.
// The owning appeal is not checked for existence.
func (s *AppealService) AddMessage(ctx context.Context, message *types.AppealMessage) (*types.AppealMessage, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	message.CreatedAt = s.now()
	if err := s.message.Create(ctx, message); err != nil {
		return nil, s.storageError("add message", message.AppealID, err)
	}

	s.logger.Debug("Appeal message added",
		zap.String("appealID", message.AppealID),
		zap.String("senderType", message.SenderType.String()),
		zap.Bool("isInternal", message.IsInternal))

	return message, nil
}

// validateMessage checks the caller-supplied fields of a thread message.
func validateMessage(message *types.AppealMessage) error {
	if strings.TrimSpace(message.Message) == "" {
		return types.NewValidationError(types.MsgMissingMessage)
	}
	if !message.SenderType.IsASenderType() {
		return types.NewValidationError("invalid sender type %s", message.SenderType)
	}
	return nil
}

// GetMessages returns the thread of an appeal, oldest first.
// Internal messages are only returned when includeInternal is set.
func (s *AppealService) GetMessages(
	ctx context.Context, appealID string, includeInternal bool,
) ([]*types.AppealMessage, error) {
	messages, err := s.message.GetByAppealID(ctx, appealID, includeInternal)
	if err != nil {
		return nil, s.storageError("get messages", appealID, err)
	}
	return messages, nil
}

// GetHistory returns the audit trail of an appeal, newest first.
func (s *AppealService) GetHistory(ctx context.Context, appealID string) ([]*types.AppealHistory, error) {
	history, err := s.history.GetByAppealID(ctx, appealID)
	if err != nil {
		return nil, s.storageError("get history", appealID, err)
	}
	return history, nil
}

// GetAppeal returns a single appeal.
func (s *AppealService) GetAppeal(ctx context.Context, id string) (*types.Appeal, error) {
	appeal, err := s.appeal.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageError("get appeal", id, err)
	}
	return appeal, nil
}

// GetFullAppeal returns an appeal with its complete thread, including
// internal messages, and its audit trail.
func (s *AppealService) GetFullAppeal(ctx context.Context, id string) (*types.FullAppeal, error) {
	appeal, err := s.GetAppeal(ctx, id)
	if err != nil {
		return nil, err
	}

	full := &types.FullAppeal{
		Appeal:           appeal,
		AccountCreatedAt: accountCreatedAt(appeal.DiscordID),
	}

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		messages, err := s.GetMessages(ctx, id, true)
		if err != nil {
			return err
		}
		full.Messages = messages
		return nil
	})
	p.Go(func(ctx context.Context) error {
		history, err := s.GetHistory(ctx, id)
		if err != nil {
			return err
		}
		full.History = history
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return full, nil
}

// accountCreatedAt derives the account creation time from a Discord user ID.
func accountCreatedAt(discordID string) time.Time {
	id, err := snowflake.Parse(discordID)
	if err != nil {
		return time.Time{}
	}
	return id.Time().UTC()
}

// List returns one page of appeals matching the filter, ordered by priority
// and then newest first.
func (s *AppealService) List(
	ctx context.Context, filter types.AppealFilter, limit, offset int,
) (*types.AppealPage, error) {
	if filter.Status != nil && !filter.Status.IsAAppealStatus() {
		return nil, types.NewValidationError("invalid status filter %s", *filter.Status)
	}
	if filter.Priority != nil && !filter.Priority.IsAAppealPriority() {
		return nil, types.NewValidationError("invalid priority filter %s", *filter.Priority)
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	appeals, total, err := s.appeal.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, s.storageError("list", "", err)
	}

	return &types.AppealPage{
		Appeals: appeals,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// Stats returns global appeal counts and the average response time in hours.
func (s *AppealService) Stats(ctx context.Context) (*types.AppealStats, error) {
	generation := s.statsGeneration.Load()

	if s.cache != nil {
		stats, ok, err := s.cache.GetStats(ctx)
		if err != nil {
			s.logger.Warn("Failed to read cached appeal stats", zap.Error(err))
		} else if ok {
			return stats, nil
		}
	}

	counts, err := s.appeal.CountByStatus(ctx)
	if err != nil {
		return nil, s.storageError("stats", "", err)
	}

	durations, err := s.appeal.GetReviewDurations(ctx)
	if err != nil {
		return nil, s.storageError("stats", "", err)
	}

	stats := &types.AppealStats{}
	for _, count := range counts {
		stats.Total += count.Count

		switch count.Status {
		case enum.AppealStatusPending:
			stats.Pending = count.Count
		case enum.AppealStatusUnderReview:
			stats.UnderReview = count.Count
		case enum.AppealStatusApproved:
			stats.Approved = count.Count
		case enum.AppealStatusDenied:
			stats.Denied = count.Count
		case enum.AppealStatusEscalated:
			stats.Escalated = count.Count
		}
	}
	stats.AvgResponseTime = averageHours(durations)

	if s.cache != nil {
		s.storeStats(ctx, stats, generation)
	}

	return stats, nil
}

// storeStats caches a computed snapshot unless stats were invalidated after
// the given generation was read.
func (s *AppealService) storeStats(ctx context.Context, stats *types.AppealStats, generation uint64) {
	if s.statsGeneration.Load() != generation {
		s.logger.Debug("Skipped caching stale appeal stats")
		return
	}

	if err := s.cache.SetStats(ctx, stats); err != nil {
		s.logger.Warn("Failed to cache appeal stats", zap.Error(err))
		return
	}

	// An invalidation between the check and the write leaves a stale entry.
	if s.statsGeneration.Load() != generation {
		s.invalidateStats(ctx)
	}
}

// averageHours returns the mean review delay in hours, or 0 without reviews.
func averageHours(durations []types.ReviewDuration) float64 {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d.ReviewedAt.Sub(d.CreatedAt)
	}

	return total.Hours() / float64(len(durations))
}

// invalidateStats drops cached statistics after a mutation.
func (s *AppealService) invalidateStats(ctx context.Context) {
	s.statsGeneration.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStats(ctx); err != nil {
		s.logger.Warn("Failed to invalidate appeal stats", zap.Error(err))
	}
}

// storageError passes domain errors through unchanged. Anything else is
// logged and reported as a StorageError.
func (s *AppealService) storageError(op, appealID string, err error) error {
	var (
		validationErr *types.ValidationError
		pendingErr    *types.AlreadyPendingError
		storageErr    *types.StorageError
	)
	if errors.Is(err, types.ErrAppealNotFound) ||
		errors.As(err, &validationErr) ||
		errors.As(err, &pendingErr) ||
		errors.As(err, &storageErr) {
		return err
	}

	s.logger.Error("Appeal storage operation failed",
		zap.String("operation", op),
		zap.String("appealID", appealID),
		zap.Error(err))

	return &types.StorageError{Op: op, Err: err}
}
