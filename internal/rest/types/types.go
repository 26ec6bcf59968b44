package types

import "time"

// SubmitAppealRequest is the body of a public appeal submission.
type SubmitAppealRequest struct {
	DiscordID       string `json:"discordId"`
	DiscordUsername string `json:"discordUsername"`
	Email           string `json:"email"`
	AppealType      string `json:"appealType"`
	BanReason       string `json:"banReason"`
	AppealMessage   string `json:"appealMessage"`
	Evidence        string `json:"evidence"`
}

// UpdateAppealRequest is the body of a staff update or reply.
// A null assignedTo unassigns the appeal.
type UpdateAppealRequest struct {
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	AssignedTo    *string `json:"assignedTo"`
	ReviewNote    *string `json:"reviewNote"`
	InternalNotes *string `json:"internalNotes"`
	Message       *string `json:"message"`
	IsInternal    bool    `json:"isInternal"`

	// AssignedToSet records that assignedTo was present, including as null.
	AssignedToSet bool `json:"-"`
}

// CloseAppealRequest is the optional body of a close request.
type CloseAppealRequest struct {
	Reason string `json:"reason"`
}

// AppealSummary is the limited view returned to anonymous callers.
type AppealSummary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Appeal is the staff view of an appeal.
type Appeal struct {
	ID              string     `json:"id"`
	DiscordID       string     `json:"discordId"`
	DiscordUsername *string    `json:"discordUsername"`
	Email           string     `json:"email"`
	AppealType      *string    `json:"appealType"`
	BanReason       *string    `json:"banReason"`
	AppealMessage   string     `json:"appealMessage"`
	Evidence        *string    `json:"evidence"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	AssignedTo      *string    `json:"assignedTo"`
	ReviewedBy      *string    `json:"reviewedBy"`
	ReviewedAt      *time.Time `json:"reviewedAt"`
	ReviewNote      *string    `json:"reviewNote"`
	InternalNotes   *string    `json:"internalNotes"`
	IPAddress       *string    `json:"ipAddress"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Message is one entry of an appeal conversation.
type Message struct {
	ID         int64     `json:"id"`
	AppealID   string    `json:"appealId"`
	SenderType string    `json:"senderType"`
	SenderID   *string   `json:"senderId"`
	SenderName *string   `json:"senderName"`
	Message    string    `json:"message"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HistoryEntry is one entry of an appeal audit trail.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	AppealID    string    `json:"appealId"`
	Action      string    `json:"action"`
	OldValue    *string   `json:"oldValue"`
	NewValue    *string   `json:"newValue"`
	PerformedBy *string   `json:"performedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FullAppealResponse is the staff view of an appeal with its thread and audit trail.
type FullAppealResponse struct {
	Appeal           Appeal         `json:"appeal"`
	Messages         []Message      `json:"messages"`
	History          []HistoryEntry `json:"history"`
	AccountCreatedAt *time.Time     `json:"accountCreatedAt"`
}

// AppealStats holds global appeal counts.
type AppealStats struct {
	Total           int     `json:"total"`
	Pending         int     `json:"pending"`
	UnderReview     int     `json:"underReview"`
	Approved        int     `json:"approved"`
	Denied          int     `json:"denied"`
	Escalated       int     `json:"escalated"`
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// ListAppealsResponse is one page of appeals together with global statistics.
type ListAppealsResponse struct {
	Appeals []Appeal    `json:"appeals"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	Stats   AppealStats `json:"stats"`
}
