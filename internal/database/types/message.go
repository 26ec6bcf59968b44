package types

import (
	"time"

	"github.com/robalyx/tribunal/internal/database/types/enum"
)

// AppealMessage represents one entry of an appeal conversation.
// Messages are append-only.
type AppealMessage struct {
	ID         int64           `bun:",pk,autoincrement"`
	AppealID   string          `bun:",notnull"`                  // Owning appeal
	SenderType enum.SenderType `bun:",type:varchar(20),notnull"` // user, staff or system
	SenderID   string          `bun:",nullzero"`                 // Discord or staff ID of the sender
	SenderName string          `bun:",nullzero"`                 // Display name at send time
	Message    string          `bun:",notnull"`
	IsInternal bool            `bun:",notnull"` // Hidden from the appellant when true
	CreatedAt  time.Time       `bun:",notnull"`
}

// AppealHistory represents one entry of an appeal audit trail.
// History entries are append-only.
type AppealHistory struct {
	ID          int64              `bun:",pk,autoincrement"`
	AppealID    string             `bun:",notnull"`
	Action      enum.HistoryAction `bun:",type:varchar(32),notnull"`
	OldValue    string             `bun:",nullzero"`
	NewValue    string             `bun:",nullzero"`
	PerformedBy string             `bun:",nullzero"` // Empty for system-originated entries
	CreatedAt   time.Time          `bun:",notnull"`
}
