package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/greenlake-gma/progress-api/internal/models"
)

// ErrDuplicateProgress signals a second record for the same
// (student, level requirement) pair.
var ErrDuplicateProgress = errors.New("progress record already exists for student and requirement")

const progressColumns = "id, student_id, level_requirement_id, status, completed_at, instructor_id, attempts, notes, created_at, updated_at"

// ProgressRepository manages persistence for student progress records. Every
// mutating method runs in a single transaction that also appends the audit
// entry when one is supplied.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs a new repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// List returns every progress record.
func (r *ProgressRepository) List(ctx context.Context) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	query := fmt.Sprintf("SELECT %s FROM student_progress ORDER BY id", progressColumns)
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	return records, nil
}

// FindByID returns a single record or sql.ErrNoRows.
func (r *ProgressRepository) FindByID(ctx context.Context, id int64) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	query := fmt.Sprintf("SELECT %s FROM student_progress WHERE id = $1", progressColumns)
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find progress record %d: %w", id, err)
	}
	return &record, nil
}

// FindByStudent returns every record for a student.
func (r *ProgressRepository) FindByStudent(ctx context.Context, studentID int64) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	query := fmt.Sprintf("SELECT %s FROM student_progress WHERE student_id = $1 ORDER BY id", progressColumns)
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("find progress by student %d: %w", studentID, err)
	}
	return records, nil
}

// Create inserts the record and, when entry is non-nil, its audit entry inside
// one transaction. A unique-index violation surfaces as ErrDuplicateProgress.
func (r *ProgressRepository) Create(ctx context.Context, record *models.ProgressRecord, entry *models.AuditLog) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = models.ProgressNotStarted
	}
	if record.Status == models.ProgressPassed && record.CompletedAt == nil {
		record.CompletedAt = &now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create progress: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO student_progress (student_id, level_requirement_id, status, completed_at, instructor_id, attempts, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err = tx.QueryRowxContext(ctx, query,
		record.StudentID, record.LevelRequirementID, record.Status, record.CompletedAt,
		record.InstructorID, record.Attempts, record.Notes, record.CreatedAt, record.UpdatedAt,
	).Scan(&record.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProgress
		}
		return fmt.Errorf("create progress record: %w", err)
	}

	if entry != nil {
		entry.EntityID = &record.ID
		if err := insertAuditLog(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create progress: %w", err)
	}
	return nil
}

// UpdateStatus applies a status transition. Any status may move to any other
// status; enforcing the forward-only cycle is left to clients. PASSED stamps
// completed_at and the confirming instructor, every other status clears
// completed_at. Returns false when no row matched; the audit entry is only
// written when a row changed.
func (r *ProgressRepository) UpdateStatus(ctx context.Context, id int64, status models.ProgressStatus, instructorID *int64, notes *string, entry *models.AuditLog) (bool, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin update status: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var res sql.Result
	if status == models.ProgressPassed {
		query := `UPDATE student_progress SET status = $1, completed_at = $2, instructor_id = $3, notes = $4, updated_at = $5 WHERE id = $6`
		res, err = tx.ExecContext(ctx, query, status, now, instructorID, notes, now, id)
	} else {
		query := `UPDATE student_progress SET status = $1, completed_at = NULL, notes = $2, updated_at = $3 WHERE id = $4`
		res, err = tx.ExecContext(ctx, query, status, notes, now, id)
	}
	if err != nil {
		return false, fmt.Errorf("update progress status %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update progress status %d: %w", id, err)
	}
	if affected == 0 {
		return false, nil
	}

	if entry != nil {
		if err := insertAuditLog(ctx, tx, entry); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit update status: %w", err)
	}
	return true, nil
}

// UpdateAttempts overwrites the attempt counter and notes. The caller supplies
// the new total, this is not an increment. Attempts-only edits write no audit
// entry.
func (r *ProgressRepository) UpdateAttempts(ctx context.Context, id int64, attempts int, notes *string) (bool, error) {
	now := time.Now().UTC()
	query := `UPDATE student_progress SET attempts = $1, notes = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, attempts, notes, now, id)
	if err != nil {
		return false, fmt.Errorf("update progress attempts %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update progress attempts %d: %w", id, err)
	}
	return affected > 0, nil
}

// Delete hard-deletes a record, recording the audit entry in the same
// transaction. Returns false when the record does not exist.
func (r *ProgressRepository) Delete(ctx context.Context, id int64, entry *models.AuditLog) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete progress: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM student_progress WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete progress record %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete progress record %d: %w", id, err)
	}
	if affected == 0 {
		return false, nil
	}

	if entry != nil {
		if err := insertAuditLog(ctx, tx, entry); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete progress: %w", err)
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
