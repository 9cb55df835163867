package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/greenlake-gma/progress-api/internal/models"
	"github.com/greenlake-gma/progress-api/internal/repository"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
)

// GetByStudentAndLevel assembles the per-student report for one level. The
// report covers every requirement of the level in sort order; requirements the
// student has no record for yet appear as NOT_STARTED with zero attempts.
func (s *ProgressService) GetByStudentAndLevel(ctx context.Context, studentID, levelID int64) (*models.LevelReport, error) {
	if s.cache != nil && s.cacheTTL > 0 {
		var cached models.LevelReport
		err := s.cache.Get(ctx, repository.ReportKey(studentID, levelID), &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
		if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report cache lookup failed", zap.Error(err))
		}
	}

	level, err := s.catalog.FindLevelByID(ctx, levelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load level")
	}

	requirements, err := s.catalog.RequirementsByLevel(ctx, levelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load requirements")
	}

	records, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load progress records")
	}
	byRequirement := make(map[int64]*models.ProgressRecord, len(records))
	for i := range records {
		byRequirement[records[i].LevelRequirementID] = &records[i]
	}

	moveIDs := make([]int64, 0, len(requirements))
	for _, req := range requirements {
		moveIDs = append(moveIDs, req.MoveID)
	}
	moves, err := s.catalog.MovesByIDs(ctx, moveIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load moves")
	}

	var instructorIDs []int64
	for _, req := range requirements {
		if record, ok := byRequirement[req.ID]; ok && record.InstructorID != nil {
			instructorIDs = append(instructorIDs, *record.InstructorID)
		}
	}
	instructors, err := s.students.FindByIDs(ctx, instructorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load instructors")
	}

	report := &models.LevelReport{
		Level:        *level,
		StudentID:    studentID,
		Requirements: make([]models.RequirementProgress, 0, len(requirements)),
	}

	for _, req := range requirements {
		row := models.RequirementProgress{
			ID:                 req.ID,
			SortOrder:          req.SortOrder,
			Move:               moves[req.MoveID],
			IsRequired:         req.IsRequired,
			LevelSpecificNotes: req.LevelSpecificNotes,
			Progress: models.RequirementStatus{
				Status:   models.ProgressNotStarted,
				Attempts: 0,
			},
		}

		if record, ok := byRequirement[req.ID]; ok {
			recordID := record.ID
			lastUpdated := record.UpdatedAt
			row.Progress = models.RequirementStatus{
				ID:          &recordID,
				Status:      record.Status,
				CompletedAt: record.CompletedAt,
				Attempts:    record.Attempts,
				Notes:       record.Notes,
				LastUpdated: &lastUpdated,
			}
			if record.InstructorID != nil {
				if instructor, ok := instructors[*record.InstructorID]; ok {
					row.Progress.Instructor = &models.InstructorInfo{ID: instructor.ID, Name: instructor.DisplayName()}
				}
			}
		}

		if req.IsRequired {
			report.Summary.RequiredTotal++
			switch row.Progress.Status {
			case models.ProgressPassed:
				report.Summary.RequiredPassed++
			case models.ProgressNotStarted, models.ProgressInProgress:
			}
		}

		report.Requirements = append(report.Requirements, row)
	}

	if report.Summary.RequiredTotal > 0 {
		report.Summary.PercentComplete = float64(report.Summary.RequiredPassed) / float64(report.Summary.RequiredTotal) * 100
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, repository.ReportKey(studentID, levelID), report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache report", zap.Error(err))
		}
	}

	return report, nil
}

// GetByStudent resolves the student's currently assigned level and builds the
// report for it.
func (s *ProgressService) GetByStudent(ctx context.Context, studentID int64) (*models.LevelReport, error) {
	assignment, err := s.students.CurrentLevel(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no assigned level")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to resolve student level")
	}
	return s.GetByStudentAndLevel(ctx, studentID, assignment.LevelID)
}

// ListByStudent returns the raw records for one student without catalog
// context, for callers that only need the flat list.
func (s *ProgressService) ListByStudent(ctx context.Context, studentID int64) ([]models.ProgressRecord, error) {
	records, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list student progress")
	}
	return records, nil
}
