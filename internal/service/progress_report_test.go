package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlake-gma/progress-api/internal/models"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
)

func reportFixture() (*mockCatalog, *mockStudents) {
	catalog := &mockCatalog{
		levels: map[int64]models.Level{
			2: {ID: 2, Code: "YELLOW", DisplayName: "Yellow Belt", OrderSeq: 2},
		},
		requirements: map[int64][]models.LevelRequirement{
			2: {
				{ID: 10, LevelID: 2, MoveID: 5, SortOrder: 1, IsRequired: true},
				{ID: 11, LevelID: 2, MoveID: 6, SortOrder: 2, IsRequired: true},
				{ID: 12, LevelID: 2, MoveID: 7, SortOrder: 3, IsRequired: true},
				{ID: 13, LevelID: 2, MoveID: 8, SortOrder: 4, IsRequired: true},
				{ID: 14, LevelID: 2, MoveID: 9, SortOrder: 5, IsRequired: false},
			},
		},
		moves: map[int64]models.Move{
			5: {ID: 5, Name: "Front Kick"},
			6: {ID: 6, Name: "Side Kick"},
			7: {ID: 7, Name: "Round Kick"},
			8: {ID: 8, Name: "Back Kick"},
			9: {ID: 9, Name: "Hook Kick"},
		},
	}
	students := &mockStudents{
		students: map[int64]models.Student{
			3: {ID: 3, FirstName: "Marco", LastName: "Rossi"},
		},
		levels: map[int64]int64{7: 2},
	}
	return catalog, students
}

func TestLevelReportCoversEveryRequirement(t *testing.T) {
	repo := newMockProgressRepo()
	catalog, students := reportFixture()
	svc := newTestProgressService(repo, &mockAuditAppender{}, catalog, students, nil, 0)

	instructorID := int64(3)
	passed, err := svc.Create(context.Background(), CreateProgressRequest{StudentID: 7, LevelRequirementID: 10, Status: "PASSED", InstructorID: &instructorID}, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateProgressRequest{StudentID: 7, LevelRequirementID: 11, Status: "IN_PROGRESS", Attempts: 2}, nil)
	require.NoError(t, err)

	report, err := svc.GetByStudentAndLevel(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, "YELLOW", report.Level.Code)
	assert.Equal(t, int64(7), report.StudentID)
	require.Len(t, report.Requirements, 5)

	first := report.Requirements[0]
	assert.Equal(t, "Front Kick", first.Move.Name)
	assert.Equal(t, models.ProgressPassed, first.Progress.Status)
	assert.NotNil(t, first.Progress.CompletedAt)
	require.NotNil(t, first.Progress.ID)
	assert.Equal(t, passed.ID, *first.Progress.ID)
	require.NotNil(t, first.Progress.Instructor)
	assert.Equal(t, "Marco Rossi", first.Progress.Instructor.Name)

	second := report.Requirements[1]
	assert.Equal(t, models.ProgressInProgress, second.Progress.Status)
	assert.Equal(t, 2, second.Progress.Attempts)

	// Requirements without a record default to NOT_STARTED with zero attempts.
	for _, row := range report.Requirements[2:] {
		assert.Equal(t, models.ProgressNotStarted, row.Progress.Status)
		assert.Zero(t, row.Progress.Attempts)
		assert.Nil(t, row.Progress.ID)
	}
}

func TestLevelReportSummaryCountsRequiredOnly(t *testing.T) {
	repo := newMockProgressRepo()
	catalog, students := reportFixture()
	svc := newTestProgressService(repo, &mockAuditAppender{}, catalog, students, nil, 0)

	_, err := svc.Create(context.Background(), CreateProgressRequest{StudentID: 7, LevelRequirementID: 10, Status: "PASSED"}, nil)
	require.NoError(t, err)
	// Passing the optional requirement must not move the summary.
	_, err = svc.Create(context.Background(), CreateProgressRequest{StudentID: 7, LevelRequirementID: 14, Status: "PASSED"}, nil)
	require.NoError(t, err)

	report, err := svc.GetByStudentAndLevel(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Summary.RequiredTotal)
	assert.Equal(t, 1, report.Summary.RequiredPassed)
	assert.InDelta(t, 25.0, report.Summary.PercentComplete, 0.001)
}

func TestLevelReportUnknownLevel(t *testing.T) {
	repo := newMockProgressRepo()
	catalog, students := reportFixture()
	svc := newTestProgressService(repo, &mockAuditAppender{}, catalog, students, nil, 0)

	_, err := svc.GetByStudentAndLevel(context.Background(), 7, 99)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestGetByStudentResolvesCurrentLevel(t *testing.T) {
	repo := newMockProgressRepo()
	catalog, students := reportFixture()
	svc := newTestProgressService(repo, &mockAuditAppender{}, catalog, students, nil, 0)

	report, err := svc.GetByStudent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Level.ID)
}

func TestGetByStudentWithoutAssignedLevel(t *testing.T) {
	repo := newMockProgressRepo()
	catalog, students := reportFixture()
	svc := newTestProgressService(repo, &mockAuditAppender{}, catalog, students, nil, 0)

	_, err := svc.GetByStudent(context.Background(), 55)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestLevelReportServedFromCache(t *testing.T) {
	repo := newMockProgressRepo()
	catalog, students := reportFixture()
	cache := newMockCache()
	svc := newTestProgressService(repo, &mockAuditAppender{}, catalog, students, cache, time.Minute)

	_, err := svc.GetByStudentAndLevel(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.levelCalls)

	cached, err := svc.GetByStudentAndLevel(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.levelCalls)
	assert.Len(t, cached.Requirements, 5)
	assert.Equal(t, 2, cache.getCalls)
}

func TestLevelReportRecordsCacheMetrics(t *testing.T) {
	repo := newMockProgressRepo()
	catalog, students := reportFixture()
	cache := newMockCache()
	metrics := &mockCacheMetrics{}
	svc := newTestProgressService(repo, &mockAuditAppender{}, catalog, students, cache, time.Minute)
	svc.metrics = metrics

	_, err := svc.GetByStudentAndLevel(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.misses)
	assert.Zero(t, metrics.hits)

	_, err = svc.GetByStudentAndLevel(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
}
