package models

import "time"

// Student is the identity projection this core consumes; roster management
// lives elsewhere.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns the student's full name.
func (s *Student) DisplayName() string {
	return s.FirstName + " " + s.LastName
}

// StudentLevel records the level currently assigned to a student.
type StudentLevel struct {
	StudentID  int64     `db:"student_id" json:"student_id"`
	LevelID    int64     `db:"level_id" json:"level_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}
