package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlake-gma/progress-api/internal/models"
)

func newProgressRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func progressRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "level_requirement_id", "status", "completed_at", "instructor_id", "attempts", "notes", "created_at", "updated_at"})
}

func TestProgressRepositoryFindByStudent(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, level_requirement_id, status, completed_at, instructor_id, attempts, notes, created_at, updated_at FROM student_progress WHERE student_id = $1 ORDER BY id")).
		WithArgs(int64(7)).
		WillReturnRows(progressRows().
			AddRow(1, 7, 10, "PASSED", now, 3, 2, nil, now, now).
			AddRow(2, 7, 11, "IN_PROGRESS", nil, nil, 1, nil, now, now))

	records, err := repo.FindByStudent(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, models.ProgressPassed, records[0].Status)
	assert.NotNil(t, records[0].CompletedAt)
	assert.Nil(t, records[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryCreateWithAudit(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO student_progress").
		WithArgs(int64(7), int64(10), "IN_PROGRESS", nil, nil, 1, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery("INSERT INTO audit_log").
		WithArgs(int64(9), "CREATE", "student_progress", int64(42), sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectCommit()

	record := &models.ProgressRecord{StudentID: 7, LevelRequirementID: 10, Status: models.ProgressInProgress, Attempts: 1}
	entry := &models.AuditLog{UserID: 9, Action: models.AuditActionCreate, Entity: models.AuditEntityStudentProgress}

	require.NoError(t, repo.Create(context.Background(), record, entry))
	assert.Equal(t, int64(42), record.ID)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, int64(42), *entry.EntityID)
	assert.Equal(t, int64(100), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryCreateWithoutAuditWritesNoEntry(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO student_progress").
		WithArgs(int64(7), int64(10), "NOT_STARTED", nil, nil, 0, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	mock.ExpectCommit()

	record := &models.ProgressRecord{StudentID: 7, LevelRequirementID: 10}
	require.NoError(t, repo.Create(context.Background(), record, nil))
	assert.Equal(t, int64(43), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO student_progress").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	record := &models.ProgressRecord{StudentID: 7, LevelRequirementID: 10}
	err := repo.Create(context.Background(), record, &models.AuditLog{UserID: 9})
	assert.ErrorIs(t, err, ErrDuplicateProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryUpdateStatusPassedStampsCompletedAt(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	instructorID := int64(3)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_progress SET status = $1, completed_at = $2, instructor_id = $3, notes = $4, updated_at = $5 WHERE id = $6")).
		WithArgs("PASSED", sqlmock.AnyArg(), instructorID, nil, sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO audit_log").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectCommit()

	entry := &models.AuditLog{UserID: 9, Action: models.AuditActionMarkCompleted, Entity: models.AuditEntityStudentProgress}
	updated, err := repo.UpdateStatus(context.Background(), 42, models.ProgressPassed, &instructorID, nil, entry)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryUpdateStatusClearsCompletedAt(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_progress SET status = $1, completed_at = NULL, notes = $2, updated_at = $3 WHERE id = $4")).
		WithArgs("IN_PROGRESS", nil, sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.UpdateStatus(context.Background(), 42, models.ProgressInProgress, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryUpdateStatusMissingRowSkipsAudit(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE student_progress SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	entry := &models.AuditLog{UserID: 9, Action: models.AuditActionUpdateStatus, Entity: models.AuditEntityStudentProgress}
	updated, err := repo.UpdateStatus(context.Background(), 999, models.ProgressInProgress, nil, nil, entry)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryUpdateAttempts(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_progress SET attempts = $1, notes = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(5, nil, sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.UpdateAttempts(context.Background(), 42, 5, nil)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryDeleteWithAudit(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_progress WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO audit_log").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(102))
	mock.ExpectCommit()

	entry := &models.AuditLog{UserID: 9, Action: models.AuditActionDelete, Entity: models.AuditEntityStudentProgress}
	deleted, err := repo.Delete(context.Background(), 42, entry)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM student_progress").
		WithArgs(int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	deleted, err := repo.Delete(context.Background(), 999, &models.AuditLog{UserID: 9})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
