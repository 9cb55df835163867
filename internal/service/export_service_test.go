package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenlake-gma/progress-api/internal/models"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
)

type staticReportProvider struct {
	report *models.LevelReport
	err    error
}

func (p *staticReportProvider) GetByStudentAndLevel(ctx context.Context, studentID, levelID int64) (*models.LevelReport, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.report, nil
}

func exportFixture() *models.LevelReport {
	notes := "keep the guard up"
	return &models.LevelReport{
		Level:     models.Level{ID: 2, Code: "YELLOW", DisplayName: "Yellow Belt"},
		StudentID: 7,
		Requirements: []models.RequirementProgress{
			{
				ID:         10,
				Move:       models.Move{ID: 5, Name: "Front Kick"},
				IsRequired: true,
				Progress:   models.RequirementStatus{Status: models.ProgressPassed, Attempts: 3, Notes: &notes},
			},
			{
				ID:         11,
				Move:       models.Move{ID: 6, Name: "Side Kick"},
				IsRequired: true,
				Progress:   models.RequirementStatus{Status: models.ProgressNotStarted},
			},
		},
		Summary: models.LevelReportSummary{RequiredTotal: 2, RequiredPassed: 1, PercentComplete: 50},
	}
}

func TestExportLevelReportCSV(t *testing.T) {
	svc := NewExportService(&staticReportProvider{report: exportFixture()}, zap.NewNop())

	result, err := svc.ExportLevelReport(context.Background(), 7, 2, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "progress_student_7_level_YELLOW.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Move,Required,Status,Attempts,Completed At,Instructor,Notes", lines[0])
	assert.Contains(t, lines[1], "Front Kick,true,PASSED,3")
	assert.Contains(t, lines[1], "keep the guard up")
	assert.Contains(t, lines[2], "Side Kick,true,NOT_STARTED,0")
}

func TestExportLevelReportDefaultsToCSV(t *testing.T) {
	svc := NewExportService(&staticReportProvider{report: exportFixture()}, zap.NewNop())

	result, err := svc.ExportLevelReport(context.Background(), 7, 2, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
}

func TestExportLevelReportPDF(t *testing.T) {
	svc := NewExportService(&staticReportProvider{report: exportFixture()}, zap.NewNop())

	result, err := svc.ExportLevelReport(context.Background(), 7, 2, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "progress_student_7_level_YELLOW.pdf", result.Filename)
	assert.True(t, bytes.HasPrefix(result.Content, []byte("%PDF")))
}

func TestExportLevelReportUnsupportedFormat(t *testing.T) {
	svc := NewExportService(&staticReportProvider{report: exportFixture()}, zap.NewNop())

	_, err := svc.ExportLevelReport(context.Background(), 7, 2, "xlsx")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExportLevelReportPropagatesReportError(t *testing.T) {
	svc := NewExportService(&staticReportProvider{err: appErrors.Clone(appErrors.ErrNotFound, "level not found")}, zap.NewNop())

	_, err := svc.ExportLevelReport(context.Background(), 7, 99, "csv")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
