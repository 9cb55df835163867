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

// CatalogRepository is a read-only view over the requirement catalog: levels,
// their ordered requirements, and the moves those requirements reference. The
// catalog is owned by the curriculum admin tooling, never written here.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a new repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindLevelByID returns a level or sql.ErrNoRows.
func (r *CatalogRepository) FindLevelByID(ctx context.Context, id int64) (*models.Level, error) {
	var level models.Level
	query := `SELECT id, code, display_name, order_seq, description, created_at, updated_at FROM levels WHERE id = $1`
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find level %d: %w", id, err)
	}
	return &level, nil
}

// RequirementsByLevel returns a level's requirements ordered by sort_order.
func (r *CatalogRepository) RequirementsByLevel(ctx context.Context, levelID int64) ([]models.LevelRequirement, error) {
	var requirements []models.LevelRequirement
	query := `SELECT id, level_id, move_id, sort_order, level_specific_notes, is_required, created_at, updated_at
FROM level_requirements WHERE level_id = $1 ORDER BY sort_order, id`
	if err := r.db.SelectContext(ctx, &requirements, query, levelID); err != nil {
		return nil, fmt.Errorf("requirements for level %d: %w", levelID, err)
	}
	return requirements, nil
}

// FindRequirementByID returns a requirement or sql.ErrNoRows.
func (r *CatalogRepository) FindRequirementByID(ctx context.Context, id int64) (*models.LevelRequirement, error) {
	var requirement models.LevelRequirement
	query := `SELECT id, level_id, move_id, sort_order, level_specific_notes, is_required, created_at, updated_at
FROM level_requirements WHERE id = $1`
	if err := r.db.GetContext(ctx, &requirement, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find requirement %d: %w", id, err)
	}
	return &requirement, nil
}

// FindMoveByID returns a move or sql.ErrNoRows.
func (r *CatalogRepository) FindMoveByID(ctx context.Context, id int64) (*models.Move, error) {
	var move models.Move
	query := `SELECT id, name, description, move_category_id, created_at, updated_at FROM moves WHERE id = $1`
	if err := r.db.GetContext(ctx, &move, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find move %d: %w", id, err)
	}
	return &move, nil
}

// MovesByIDs fetches the given moves in one round trip, keyed by id.
func (r *CatalogRepository) MovesByIDs(ctx context.Context, ids []int64) (map[int64]models.Move, error) {
	result := make(map[int64]models.Move, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var moves []models.Move
	query := `SELECT id, name, description, move_category_id, created_at, updated_at FROM moves WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &moves, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find moves: %w", err)
	}
	for _, move := range moves {
		result[move.ID] = move
	}
	return result, nil
}
