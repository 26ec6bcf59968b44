package database

import (
	"github.com/robalyx/tribunal/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	appeal  *models.AppealModel
	message *models.MessageModel
	history *models.HistoryModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		appeal:  models.NewAppeal(db, logger),
		message: models.NewMessage(db, logger),
		history: models.NewHistory(db, logger),
	}
}

// Appeal returns the appeal model repository.
func (r *Repository) Appeal() *models.AppealModel {
	return r.appeal
}

// Message returns the appeal message model repository.
func (r *Repository) Message() *models.MessageModel {
	return r.message
}

// History returns the appeal history model repository.
func (r *Repository) History() *models.HistoryModel {
	return r.history
}
