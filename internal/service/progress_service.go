package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenlake-gma/progress-api/internal/models"
	"github.com/greenlake-gma/progress-api/internal/repository"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
)

type progressRepository interface {
	List(ctx context.Context) ([]models.ProgressRecord, error)
	FindByID(ctx context.Context, id int64) (*models.ProgressRecord, error)
	FindByStudent(ctx context.Context, studentID int64) ([]models.ProgressRecord, error)
	Create(ctx context.Context, record *models.ProgressRecord, entry *models.AuditLog) error
	UpdateStatus(ctx context.Context, id int64, status models.ProgressStatus, instructorID *int64, notes *string, entry *models.AuditLog) (bool, error)
	UpdateAttempts(ctx context.Context, id int64, attempts int, notes *string) (bool, error)
	Delete(ctx context.Context, id int64, entry *models.AuditLog) (bool, error)
}

type auditAppender interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

type catalogReader interface {
	FindLevelByID(ctx context.Context, id int64) (*models.Level, error)
	RequirementsByLevel(ctx context.Context, levelID int64) ([]models.LevelRequirement, error)
	FindRequirementByID(ctx context.Context, id int64) (*models.LevelRequirement, error)
	FindMoveByID(ctx context.Context, id int64) (*models.Move, error)
	MovesByIDs(ctx context.Context, ids []int64) (map[int64]models.Move, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Student, error)
	CurrentLevel(ctx context.Context, studentID int64) (*models.StudentLevel, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// Actor identifies the authenticated user performing a mutation. A nil actor
// means the call carries no identity and no audit entry is written.
type Actor struct {
	UserID    int64
	UserAgent *string
}

// ProgressService owns every write to progress records and the audit ledger.
// Each successful mutation with a known actor produces exactly one ledger
// entry; failed mutations produce none.
type ProgressService struct {
	repo      progressRepository
	audit     auditAppender
	catalog   catalogReader
	students  studentReader
	cache     reportCache
	cacheTTL  time.Duration
	metrics   cacheMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressService constructs the service. cache may be nil; cacheTTL <= 0
// disables report caching. metrics may be nil.
func NewProgressService(repo progressRepository, audit auditAppender, catalog catalogReader, students studentReader, cache reportCache, cacheTTL time.Duration, metrics cacheMetrics, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ProgressService{
		repo:      repo,
		audit:     audit,
		catalog:   catalog,
		students:  students,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
	svc.validator.RegisterValidation("progress_status", func(fl validator.FieldLevel) bool {
		return models.ProgressStatus(fl.Field().String()).Valid()
	})
	return svc
}

// CreateProgressRequest describes the create payload.
type CreateProgressRequest struct {
	StudentID          int64   `json:"student_id" validate:"required,gt=0"`
	LevelRequirementID int64   `json:"level_requirement_id" validate:"required,gt=0"`
	Status             string  `json:"status" validate:"omitempty,progress_status"`
	InstructorID       *int64  `json:"instructor_id"`
	Attempts           int     `json:"attempts" validate:"gte=0"`
	Notes              *string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateProgressRequest describes the update payload. Status takes precedence
// over attempts when both are supplied.
type UpdateProgressRequest struct {
	Status       *string `json:"status" validate:"omitempty,progress_status"`
	InstructorID *int64  `json:"instructor_id"`
	Attempts     *int    `json:"attempts" validate:"omitempty,gte=0"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
}

// BulkUpdateProgressRequest applies the same change to many records.
type BulkUpdateProgressRequest struct {
	ProgressIDs  []int64 `json:"progress_ids" validate:"required,min=1,dive,gt=0"`
	Status       *string `json:"status" validate:"omitempty,progress_status"`
	InstructorID *int64  `json:"instructor_id"`
	Attempts     *int    `json:"attempts" validate:"omitempty,gte=0"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
}

// List returns every progress record enriched with catalog context.
func (s *ProgressService) List(ctx context.Context) ([]models.ProgressDetail, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to list progress records")
	}
	details := make([]models.ProgressDetail, 0, len(records))
	for i := range records {
		detail, err := s.enrich(ctx, &records[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// Get returns one record with catalog context.
func (s *ProgressService) Get(ctx context.Context, id int64) (*models.ProgressDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "progress record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load progress record")
	}
	return s.enrich(ctx, record)
}

// Create records a student's first interaction with a requirement. A second
// record for the same (student, requirement) pair is rejected.
func (s *ProgressService) Create(ctx context.Context, req CreateProgressRequest, actor *Actor) (*models.ProgressRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}

	status := models.ProgressNotStarted
	if req.Status != "" {
		status = models.ProgressStatus(req.Status)
	}
	record := &models.ProgressRecord{
		StudentID:          req.StudentID,
		LevelRequirementID: req.LevelRequirementID,
		Status:             status,
		InstructorID:       req.InstructorID,
		Attempts:           req.Attempts,
		Notes:              req.Notes,
	}

	var entry *models.AuditLog
	if actor != nil {
		description := fmt.Sprintf("Created progress for student %d on requirement %d with status %s", req.StudentID, req.LevelRequirementID, status)
		entry = &models.AuditLog{
			UserID:      actor.UserID,
			Action:      models.AuditActionCreate,
			Entity:      models.AuditEntityStudentProgress,
			Description: &description,
			UserAgent:   actor.UserAgent,
		}
	}

	if err := s.repo.Create(ctx, record, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateProgress) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "progress record already exists for student and requirement")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to create progress record")
	}

	s.invalidateReports(ctx, repository.ReportPattern(record.StudentID))
	return record, nil
}

// Update dispatches a single-record edit: a supplied status drives a status
// transition, otherwise a supplied attempts value overwrites the counter.
// Returns false when the record does not exist.
func (s *ProgressService) Update(ctx context.Context, id int64, req UpdateProgressRequest, actor *Actor) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	switch {
	case req.Status != nil:
		return s.UpdateStatus(ctx, id, models.ProgressStatus(*req.Status), req.InstructorID, req.Notes, actor)
	case req.Attempts != nil:
		return s.UpdateAttempts(ctx, id, *req.Attempts, req.Notes)
	default:
		return false, appErrors.Clone(appErrors.ErrValidation, "either status or attempts must be provided")
	}
}

// UpdateStatus applies a status transition. The service accepts any
// status-to-status move; the forward-only NOT_STARTED -> IN_PROGRESS -> PASSED
// cycle is a client convention, pending product sign-off on server-side
// enforcement. PASSED stamps completed_at and the confirming instructor; any
// other status clears completed_at.
func (s *ProgressService) UpdateStatus(ctx context.Context, id int64, status models.ProgressStatus, instructorID *int64, notes *string, actor *Actor) (bool, error) {
	if !status.Valid() {
		return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown progress status %q", status))
	}

	var entry *models.AuditLog
	if actor != nil {
		action := models.AuditActionUpdateStatus
		if status == models.ProgressPassed {
			action = models.AuditActionMarkCompleted
		}
		description := fmt.Sprintf("Updated progress: status=%s, instructor=%s", status, formatOptionalID(instructorID))
		entityID := id
		entry = &models.AuditLog{
			UserID:      actor.UserID,
			Action:      action,
			Entity:      models.AuditEntityStudentProgress,
			EntityID:    &entityID,
			Description: &description,
			UserAgent:   actor.UserAgent,
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, instructorID, notes, entry)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to update progress status")
	}
	if updated {
		s.invalidateReports(ctx, repository.ReportKeyPattern)
	}
	return updated, nil
}

// UpdateAttempts overwrites the attempt counter and notes. The caller supplies
// the new total. Attempts-only edits write no audit entry; only status
// transitions are ledgered.
func (s *ProgressService) UpdateAttempts(ctx context.Context, id int64, attempts int, notes *string) (bool, error) {
	if attempts < 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "attempts must not be negative")
	}
	updated, err := s.repo.UpdateAttempts(ctx, id, attempts, notes)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to update progress attempts")
	}
	if updated {
		s.invalidateReports(ctx, repository.ReportKeyPattern)
	}
	return updated, nil
}

// BulkUpdate applies the same change to each record independently, one
// transaction per record. The batch is not atomic: a failure on one id does
// not roll back the others, and the caller only receives the count of records
// that changed. At most one BULK_UPDATE ledger entry is written for the whole
// batch, and only when at least one record changed.
func (s *ProgressService) BulkUpdate(ctx context.Context, req BulkUpdateProgressRequest, actor *Actor) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk update payload")
	}

	count := 0
	for _, id := range req.ProgressIDs {
		var (
			updated bool
			err     error
		)
		switch {
		case req.Status != nil:
			updated, err = s.repo.UpdateStatus(ctx, id, models.ProgressStatus(*req.Status), req.InstructorID, req.Notes, nil)
		case req.Attempts != nil:
			updated, err = s.repo.UpdateAttempts(ctx, id, *req.Attempts, req.Notes)
		default:
			return 0, appErrors.Clone(appErrors.ErrValidation, "either status or attempts must be provided")
		}
		if err != nil {
			s.logger.Warn("bulk update skipped record", zap.Int64("progress_id", id), zap.Error(err))
			continue
		}
		if updated {
			count++
		}
	}

	if count > 0 && actor != nil {
		description := fmt.Sprintf("Bulk updated %d progress records: status=%s, attempts=%s", count, formatOptionalStatus(req.Status), formatOptionalInt(req.Attempts))
		entry := &models.AuditLog{
			UserID:      actor.UserID,
			Action:      models.AuditActionBulkUpdate,
			Entity:      models.AuditEntityStudentProgress,
			Description: &description,
			UserAgent:   actor.UserAgent,
		}
		if err := s.audit.Append(ctx, entry); err != nil {
			return count, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to record bulk update audit entry")
		}
	}

	if count > 0 {
		s.invalidateReports(ctx, repository.ReportKeyPattern)
	}
	return count, nil
}

// Delete hard-deletes a record. Returns false, without error, when no such
// record exists; no audit entry is written in that case.
func (s *ProgressService) Delete(ctx context.Context, id int64, actor *Actor) (bool, error) {
	var entry *models.AuditLog
	if actor != nil {
		description := "Deleted progress record"
		entityID := id
		entry = &models.AuditLog{
			UserID:      actor.UserID,
			Action:      models.AuditActionDelete,
			Entity:      models.AuditEntityStudentProgress,
			EntityID:    &entityID,
			Description: &description,
			UserAgent:   actor.UserAgent,
		}
	}

	deleted, err := s.repo.Delete(ctx, id, entry)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to delete progress record")
	}
	if deleted {
		s.invalidateReports(ctx, repository.ReportKeyPattern)
	}
	return deleted, nil
}

func (s *ProgressService) enrich(ctx context.Context, record *models.ProgressRecord) (*models.ProgressDetail, error) {
	detail := &models.ProgressDetail{ProgressRecord: *record}

	requirement, err := s.catalog.FindRequirementByID(ctx, record.LevelRequirementID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load requirement")
	}
	if requirement != nil {
		level, err := s.catalog.FindLevelByID(ctx, requirement.LevelID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load level")
		}
		detail.Level = level
		move, err := s.catalog.FindMoveByID(ctx, requirement.MoveID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load move")
		}
		detail.Move = move
	}

	if record.InstructorID != nil {
		instructor, err := s.students.FindByID(ctx, *record.InstructorID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, "failed to load instructor")
		}
		if instructor != nil {
			name := instructor.DisplayName()
			detail.InstructorName = &name
		}
	}

	return detail, nil
}

// invalidateReports drops cached reports matching pattern. Create knows the
// student and narrows to that student's keys; id-only writes cannot resolve
// the owning student without an extra read and flush every report instead.
func (s *ProgressService) invalidateReports(ctx context.Context, pattern string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *id)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *v)
}

func formatOptionalStatus(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}
