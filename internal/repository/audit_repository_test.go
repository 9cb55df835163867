package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlake-gma/progress-api/internal/models"
)

func newAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func auditRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "action", "entity", "entity_id", "description", "user_agent", "created_at"})
}

func TestAuditRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery("INSERT INTO audit_log").
		WithArgs(int64(9), "BULK_UPDATE", "student_progress", nil, sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))

	description := "Bulk updated 3 progress records"
	entry := &models.AuditLog{
		UserID:      9,
		Action:      models.AuditActionBulkUpdate,
		Entity:      models.AuditEntityStudentProgress,
		Description: &description,
	}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.Equal(t, int64(55), entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, user_id, action, entity, entity_id, description, user_agent, created_at\nFROM audit_log WHERE user_id = \\$1 ORDER BY created_at DESC, id DESC LIMIT \\$2").
		WithArgs(int64(9), 100).
		WillReturnRows(auditRows().
			AddRow(2, 9, "DELETE", "student_progress", 42, nil, nil, now).
			AddRow(1, 9, "CREATE", "student_progress", 42, nil, nil, now.Add(-time.Minute)))

	entries, err := repo.ListByUser(context.Background(), 9, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "DELETE", entries[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListByEntityWithID(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_log WHERE entity = $1 AND entity_id = $2")).
		WithArgs("student_progress", int64(42), 100).
		WillReturnRows(auditRows().AddRow(1, 9, "UPDATE_STATUS", "student_progress", 42, nil, nil, now))

	entityID := int64(42)
	entries, err := repo.ListByEntity(context.Background(), models.AuditEntityStudentProgress, &entityID, 100)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].EntityID)
	assert.Equal(t, int64(42), *entries[0].EntityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListByEntityWithoutID(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_log WHERE entity = $1 ORDER BY created_at DESC, id DESC LIMIT $2")).
		WithArgs("student_progress", 100).
		WillReturnRows(auditRows().AddRow(1, 9, "BULK_UPDATE", "student_progress", nil, nil, nil, now))

	entries, err := repo.ListByEntity(context.Background(), models.AuditEntityStudentProgress, nil, 1000)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].EntityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
