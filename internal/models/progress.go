package models

import "time"

// ProgressStatus is the closed set of states a student can hold against a requirement.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NOT_STARTED"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressPassed     ProgressStatus = "PASSED"
)

// Valid reports whether s is one of the three known states.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressNotStarted, ProgressInProgress, ProgressPassed:
		return true
	default:
		return false
	}
}

// ProgressRecord tracks one student's state against one level requirement.
// At most one record exists per (student_id, level_requirement_id) pair.
type ProgressRecord struct {
	ID                 int64          `db:"id" json:"id"`
	StudentID          int64          `db:"student_id" json:"student_id"`
	LevelRequirementID int64          `db:"level_requirement_id" json:"level_requirement_id"`
	Status             ProgressStatus `db:"status" json:"status"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	InstructorID       *int64         `db:"instructor_id" json:"instructor_id,omitempty"`
	Attempts           int            `db:"attempts" json:"attempts"`
	Notes              *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// ProgressDetail is a ProgressRecord enriched with catalog and identity context.
type ProgressDetail struct {
	ProgressRecord
	Level          *Level  `json:"level,omitempty"`
	Move           *Move   `json:"move,omitempty"`
	InstructorName *string `json:"instructor_name,omitempty"`
}

// InstructorInfo identifies the instructor that confirmed a record.
type InstructorInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RequirementStatus is the per-requirement status block inside a level report.
// Records that do not exist yet are reported as NOT_STARTED with zero attempts.
type RequirementStatus struct {
	ID          *int64          `json:"id,omitempty"`
	Status      ProgressStatus  `json:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Instructor  *InstructorInfo `json:"instructor,omitempty"`
	Attempts    int             `json:"attempts"`
	Notes       *string         `json:"notes,omitempty"`
	LastUpdated *time.Time      `json:"last_updated,omitempty"`
}

// RequirementProgress is one row of a level report.
type RequirementProgress struct {
	ID                 int64             `json:"id"`
	SortOrder          int               `json:"sort_order"`
	Move               Move              `json:"move"`
	IsRequired         bool              `json:"is_required"`
	LevelSpecificNotes *string           `json:"level_specific_notes,omitempty"`
	Progress           RequirementStatus `json:"progress"`
}

// LevelReport is the complete per-student, per-level progress view. It always
// covers every requirement of the level, in sort order.
type LevelReport struct {
	Level        Level                 `json:"level"`
	StudentID    int64                 `json:"student_id"`
	Requirements []RequirementProgress `json:"requirements"`
	Summary      LevelReportSummary    `json:"summary"`
}

// LevelReportSummary aggregates completion over the required requirements.
type LevelReportSummary struct {
	RequiredTotal   int     `json:"required_total"`
	RequiredPassed  int     `json:"required_passed"`
	PercentComplete float64 `json:"percent_complete"`
}
