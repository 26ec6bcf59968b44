package database

import (
	"github.com/robalyx/tribunal/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	appeal *service.AppealService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, logger *zap.Logger, opts ...service.Option) *Service {
	return &Service{
		appeal: service.NewAppeal(db, repository.Appeal(), repository.Message(), repository.History(), logger, opts...),
	}
}

// Appeal returns the appeal service.
func (s *Service) Appeal() *service.AppealService {
	return s.appeal
}
