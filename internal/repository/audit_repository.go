package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/greenlake-gma/progress-api/internal/models"
)

// AuditRepository reads and appends to the audit ledger. The ledger is
// append-only; there are no update or delete paths.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs a new repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes a single ledger entry.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	return insertAuditLog(ctx, r.db, entry)
}

// ListByUser returns the most recent entries recorded for an actor.
func (r *AuditRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditLog
	query := `SELECT id, user_id, action, entity, entity_id, description, user_agent, created_at
FROM audit_log WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list audit logs by user %d: %w", userID, err)
	}
	return entries, nil
}

// ListByEntity returns entries for an entity type, optionally narrowed to one
// entity id. A nil entityID matches batch entries too.
func (r *AuditRepository) ListByEntity(ctx context.Context, entity string, entityID *int64, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditLog
	if entityID != nil {
		query := `SELECT id, user_id, action, entity, entity_id, description, user_agent, created_at
FROM audit_log WHERE entity = $1 AND entity_id = $2 ORDER BY created_at DESC, id DESC LIMIT $3`
		if err := r.db.SelectContext(ctx, &entries, query, entity, *entityID, limit); err != nil {
			return nil, fmt.Errorf("list audit logs for %s/%d: %w", entity, *entityID, err)
		}
		return entries, nil
	}
	query := `SELECT id, user_id, action, entity, entity_id, description, user_agent, created_at
FROM audit_log WHERE entity = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &entries, query, entity, limit); err != nil {
		return nil, fmt.Errorf("list audit logs for %s: %w", entity, err)
	}
	return entries, nil
}

// insertAuditLog appends an entry using the provided executor so callers can
// include it in their own transaction.
func insertAuditLog(ctx context.Context, ext sqlx.ExtContext, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO audit_log (user_id, action, entity, entity_id, description, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := sqlx.GetContext(ctx, ext, &entry.ID, query,
		entry.UserID, entry.Action, entry.Entity, entry.EntityID,
		entry.Description, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}
