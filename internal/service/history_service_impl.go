package service

import (
	"context"

	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/repository"
)

type historyService struct {
	audit repository.AuditRepo
	flags repository.FeatureFlagRepo
}

func NewHistoryService(audit repository.AuditRepo, flags repository.FeatureFlagRepo) HistoryService {
	return &historyService{audit: audit, flags: flags}
}

func (s *historyService) Recent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.audit.ListRecent(ctx, limit)
}

func (s *historyService) Flags(ctx context.Context) ([]domain.FeatureFlagState, error) {
	return s.flags.List(ctx)
}
