package models

import "time"

// AuditAction constants represent actions recorded in the ledger.
const (
	AuditActionCreate        = "CREATE"
	AuditActionUpdateStatus  = "UPDATE_STATUS"
	AuditActionMarkCompleted = "MARK_COMPLETED"
	AuditActionBulkUpdate    = "BULK_UPDATE"
	AuditActionDelete        = "DELETE"
	AuditActionLogin         = "LOGIN"
)

// AuditEntityStudentProgress labels ledger entries that target progress records.
const AuditEntityStudentProgress = "student_progress"

// AuditLog is one append-only ledger entry. Entries are never updated or deleted.
type AuditLog struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Action      string    `db:"action" json:"action"`
	Entity      string    `db:"entity" json:"entity"`
	EntityID    *int64    `db:"entity_id" json:"entity_id,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	UserAgent   *string   `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
