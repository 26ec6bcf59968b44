package types

import (
	"time"

	"github.com/robalyx/tribunal/internal/database/types/enum"
)

// AppealIDPrefix is the fixed prefix of every public appeal identifier.
const AppealIDPrefix = "APL-"

// Appeal represents a ban or mute dispute in the database.
type Appeal struct {
	ID              string              `bun:",pk"`       // Public identifier (APL-XXXXXX)
	DiscordID       string              `bun:",notnull"`  // Discord user ID of the appellant
	DiscordUsername string              `bun:",nullzero"` // Discord username at submission time
	Email           string              `bun:",notnull"`  // Contact email of the appellant
	AppealType      string              `bun:",nullzero"` // Kind of punishment being appealed (ban, mute, ...)
	BanReason       string              `bun:",nullzero"` // Reason the appellant was given
	AppealMessage   string              `bun:",notnull"`  // Appellant's statement
	Evidence        string              `bun:",nullzero"` // Links or text supporting the appeal
	Status          enum.AppealStatus   `bun:",type:varchar(20),notnull"`
	Priority        enum.AppealPriority `bun:",type:varchar(20),notnull"`
	AssignedTo      string              `bun:",nullzero"` // Staff member handling the appeal
	ReviewedBy      string              `bun:",nullzero"` // Staff member who approved or denied
	ReviewedAt      time.Time           `bun:",nullzero"` // When the appeal was approved or denied
	ReviewNote      string              `bun:",nullzero"` // Note shared with the final decision
	InternalNotes   string              `bun:",nullzero"` // Staff-only notes
	IPAddress       string              `bun:",nullzero"` // Submitter IP for abuse tracking
	CreatedAt       time.Time           `bun:",notnull"`
	UpdatedAt       time.Time           `bun:",notnull"`
}

// IsReviewed reports whether the appeal carries a review timestamp.
func (a *Appeal) IsReviewed() bool {
	return !a.ReviewedAt.IsZero()
}

// AppealSubmission carries the fields supplied by an appellant.
type AppealSubmission struct {
	DiscordID       string
	DiscordUsername string
	Email           string
	AppealType      string
	BanReason       string
	AppealMessage   string
	Evidence        string
	IPAddress       string
}

// AppealPatch is a partial update of staff-controlled appeal fields.
// A nil field is left untouched. A non-nil AssignedTo pointing to an
// empty string unassigns the appeal.
type AppealPatch struct {
	Status        *enum.AppealStatus
	Priority      *enum.AppealPriority
	AssignedTo    *string
	ReviewNote    *string
	InternalNotes *string
}

// IsEmpty reports whether the patch carries no fields.
func (p *AppealPatch) IsEmpty() bool {
	return p == nil ||
		(p.Status == nil && p.Priority == nil && p.AssignedTo == nil &&
			p.ReviewNote == nil && p.InternalNotes == nil)
}

// AppealFilter narrows an appeal listing. Nil and empty fields disable a filter.
type AppealFilter struct {
	Status     *enum.AppealStatus
	Priority   *enum.AppealPriority
	AssignedTo string
	Search     string
}

// AppealPage is one page of a filtered appeal listing.
type AppealPage struct {
	Appeals []*Appeal
	Total   int // Filtered count before pagination
	Limit   int
	Offset  int
}

// AppealStats holds global appeal counts.
type AppealStats struct {
	Total           int     `json:"total"`
	Pending         int     `json:"pending"`
	UnderReview     int     `json:"underReview"`
	Approved        int     `json:"approved"`
	Denied          int     `json:"denied"`
	Escalated       int     `json:"escalated"`
	AvgResponseTime float64 `json:"avgResponseTime"` // Hours between creation and review
}

// AppealStatusCount is one row of a per-status aggregate.
type AppealStatusCount struct {
	Status enum.AppealStatus
	Count  int
}

// ReviewDuration pairs the creation and review time of a reviewed appeal.
type ReviewDuration struct {
	CreatedAt  time.Time
	ReviewedAt time.Time
}

// FullAppeal combines an appeal with its thread and audit trail.
type FullAppeal struct {
	*Appeal

	Messages         []*AppealMessage
	History          []*AppealHistory
	AccountCreatedAt time.Time // Derived from the Discord snowflake
}
