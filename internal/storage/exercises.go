package storage

import (
	"context"
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const exerciseColumns = `id, name, description, muscle_groups_primary, muscle_groups_secondary,
	equipment, difficulty, instructions, category, is_custom, created_by`

// ListExercises returns system exercises plus the user's custom ones, by name.
func (db *DB) ListExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE created_by IS NULL OR created_by = $1
		 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// GetExercise returns one exercise visible to the user.
func (db *DB) GetExercise(ctx context.Context, userID, id uuid.UUID) (*models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE id = $1 AND (created_by IS NULL OR created_by = $2)`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise: %w", err)
	}
	defer rows.Close()
	list, err := scanExercises(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNotFound
	}
	return &list[0], nil
}

// GetExercises returns the exercises with the given ids visible to the user,
// keyed by id. Unknown ids are absent from the map.
func (db *DB) GetExercises(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE id = ANY($1) AND (created_by IS NULL OR created_by = $2)`, ids, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()
	list, err := scanExercises(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Exercise, len(list))
	for _, ex := range list {
		out[ex.ID] = ex
	}
	return out, nil
}

// FindExerciseByName does a case-insensitive lookup, preferring the user's
// own exercise over a system one.
func (db *DB) FindExerciseByName(ctx context.Context, userID uuid.UUID, name string) (*models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE lower(name) = lower($1) AND (created_by IS NULL OR created_by = $2)
		 ORDER BY created_by NULLS LAST
		 LIMIT 1`, name, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise by name: %w", err)
	}
	defer rows.Close()
	list, err := scanExercises(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNotFound
	}
	return &list[0], nil
}

// InsertExercise stores a custom exercise. A name clash with another of the
// user's exercises yields models.ErrConflict.
func (db *DB) InsertExercise(ctx context.Context, ex models.Exercise) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		ex.ID, ex.Name, ex.Description, nonNil(ex.MusclesPrimary), nonNil(ex.MusclesSecondary),
		nonNil(ex.Equipment), ex.Difficulty, nonNil(ex.Instructions), ex.Category, ex.IsCustom, ex.CreatedBy)
	if err != nil {
		return fmt.Errorf("inserting exercise %q: %w", ex.Name, mapErr(err))
	}
	return nil
}

func scanExercises(rows pgx.Rows) ([]models.Exercise, error) {
	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.Name, &ex.Description, &ex.MusclesPrimary, &ex.MusclesSecondary,
			&ex.Equipment, &ex.Difficulty, &ex.Instructions, &ex.Category, &ex.IsCustom, &ex.CreatedBy); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}
