package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/greenlake-gma/progress-api/internal/models"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
)

type auditReader interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.AuditLog, error)
	ListByEntity(ctx context.Context, entity string, entityID *int64, limit int) ([]models.AuditLog, error)
}

// AuditService exposes read access to the ledger. The ledger itself is only
// ever written by the services that own the audited entities.
type AuditService struct {
	repo   auditReader
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo auditReader, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// ListByUser returns the entries recorded for one actor, newest first.
func (s *AuditService) ListByUser(ctx context.Context, userID int64, limit int) ([]models.AuditLog, error) {
	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list audit entries")
	}
	return entries, nil
}

// ListByEntity returns the entries for an entity type, optionally narrowed to
// a single entity id.
func (s *AuditService) ListByEntity(ctx context.Context, entity string, entityID *int64, limit int) ([]models.AuditLog, error) {
	if entity == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entity is required")
	}
	entries, err := s.repo.ListByEntity(ctx, entity, entityID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list audit entries")
	}
	return entries, nil
}
