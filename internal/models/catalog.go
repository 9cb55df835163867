package models

import "time"

// Level is a ranked tier in the curriculum, e.g. a belt rank.
type Level struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	DisplayName string    `db:"display_name" json:"display_name"`
	OrderSeq    int       `db:"order_seq" json:"order_seq"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Move is a named technique definition referenced by requirements.
type Move struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    *string   `db:"description" json:"description,omitempty"`
	MoveCategoryID int64     `db:"move_category_id" json:"move_category_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// LevelRequirement pairs a level with a move, ordered within the level.
type LevelRequirement struct {
	ID                 int64     `db:"id" json:"id"`
	LevelID            int64     `db:"level_id" json:"level_id"`
	MoveID             int64     `db:"move_id" json:"move_id"`
	SortOrder          int       `db:"sort_order" json:"sort_order"`
	LevelSpecificNotes *string   `db:"level_specific_notes" json:"level_specific_notes,omitempty"`
	IsRequired         bool      `db:"is_required" json:"is_required"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
