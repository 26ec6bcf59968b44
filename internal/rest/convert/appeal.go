package convert

import (
	"time"

	"github.com/robalyx/tribunal/internal/database/types"
	restTypes "github.com/robalyx/tribunal/internal/rest/types"
)

// AppealSummary converts a database appeal to the limited public view.
func AppealSummary(appeal *types.Appeal) *restTypes.AppealSummary {
	return &restTypes.AppealSummary{
		ID:        appeal.ID,
		Status:    appeal.Status.String(),
		CreatedAt: appeal.CreatedAt,
		UpdatedAt: appeal.UpdatedAt,
	}
}

// Appeal converts a database appeal to the staff view.
func Appeal(appeal *types.Appeal) restTypes.Appeal {
	return restTypes.Appeal{
		ID:              appeal.ID,
		DiscordID:       appeal.DiscordID,
		DiscordUsername: optionalString(appeal.DiscordUsername),
		Email:           appeal.Email,
		AppealType:      optionalString(appeal.AppealType),
		BanReason:       optionalString(appeal.BanReason),
		AppealMessage:   appeal.AppealMessage,
		Evidence:        optionalString(appeal.Evidence),
		Status:          appeal.Status.String(),
		Priority:        appeal.Priority.String(),
		AssignedTo:      optionalString(appeal.AssignedTo),
		ReviewedBy:      optionalString(appeal.ReviewedBy),
		ReviewedAt:      optionalTime(appeal.ReviewedAt),
		ReviewNote:      optionalString(appeal.ReviewNote),
		InternalNotes:   optionalString(appeal.InternalNotes),
		IPAddress:       optionalString(appeal.IPAddress),
		CreatedAt:       appeal.CreatedAt,
		UpdatedAt:       appeal.UpdatedAt,
	}
}

// Appeals converts a slice of database appeals to staff views.
func Appeals(appeals []*types.Appeal) []restTypes.Appeal {
	result := make([]restTypes.Appeal, len(appeals))
	for i, appeal := range appeals {
		result[i] = Appeal(appeal)
	}
	return result
}

// Messages converts appeal messages to REST API messages.
func Messages(messages []*types.AppealMessage) []restTypes.Message {
	result := make([]restTypes.Message, len(messages))
	for i, m := range messages {
		result[i] = restTypes.Message{
			ID:         m.ID,
			AppealID:   m.AppealID,
			SenderType: m.SenderType.String(),
			SenderID:   optionalString(m.SenderID),
			SenderName: optionalString(m.SenderName),
			Message:    m.Message,
			IsInternal: m.IsInternal,
			CreatedAt:  m.CreatedAt,
		}
	}
	return result
}

// History converts audit entries to REST API history entries.
func History(history []*types.AppealHistory) []restTypes.HistoryEntry {
	result := make([]restTypes.HistoryEntry, len(history))
	for i, h := range history {
		result[i] = restTypes.HistoryEntry{
			ID:          h.ID,
			AppealID:    h.AppealID,
			Action:      h.Action.String(),
			OldValue:    optionalString(h.OldValue),
			NewValue:    optionalString(h.NewValue),
			PerformedBy: optionalString(h.PerformedBy),
			CreatedAt:   h.CreatedAt,
		}
	}
	return result
}

// FullAppeal converts an appeal with its thread and audit trail.
func FullAppeal(full *types.FullAppeal) *restTypes.FullAppealResponse {
	return &restTypes.FullAppealResponse{
		Appeal:           Appeal(full.Appeal),
		Messages:         Messages(full.Messages),
		History:          History(full.History),
		AccountCreatedAt: optionalTime(full.AccountCreatedAt),
	}
}

// Stats converts database statistics to REST API statistics.
func Stats(stats *types.AppealStats) restTypes.AppealStats {
	return restTypes.AppealStats{
		Total:           stats.Total,
		Pending:         stats.Pending,
		UnderReview:     stats.UnderReview,
		Approved:        stats.Approved,
		Denied:          stats.Denied,
		Escalated:       stats.Escalated,
		AvgResponseTime: stats.AvgResponseTime,
	}
}

// optionalString maps empty strings to JSON null.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
