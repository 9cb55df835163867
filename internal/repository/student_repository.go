package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/greenlake-gma/progress-api/internal/models"
)

// StudentRepository is the read-only identity lookup this core consumes:
// students, their display names, and the level currently assigned to them.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student or sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	query := `SELECT id, first_name, last_name, email, is_active, created_at FROM students WHERE id = $1`
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find student %d: %w", id, err)
	}
	return &student, nil
}

// FindByIDs fetches the given students in one round trip, keyed by id.
// Missing ids are simply absent from the map.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Student, error) {
	result := make(map[int64]models.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var students []models.Student
	query := `SELECT id, first_name, last_name, email, is_active, created_at FROM students WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	for _, student := range students {
		result[student.ID] = student
	}
	return result, nil
}

// CurrentLevel returns the level currently assigned to a student, or
// sql.ErrNoRows when the student has no assignment.
func (r *StudentRepository) CurrentLevel(ctx context.Context, studentID int64) (*models.StudentLevel, error) {
	var assignment models.StudentLevel
	query := `SELECT student_id, level_id, assigned_at FROM student_levels
WHERE student_id = $1 ORDER BY assigned_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &assignment, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("current level for student %d: %w", studentID, err)
	}
	return &assignment, nil
}
