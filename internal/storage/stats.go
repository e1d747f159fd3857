package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MuscleHits returns one primary muscle group per logged workout exercise
// and group, for the statistics breakdown.
func (db *DB) MuscleHits(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT unnest(e.muscle_groups_primary)
		 FROM workout_exercises we
		 JOIN workouts w ON w.id = we.workout_id
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE w.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying muscle groups: %w", err)
	}
	defer rows.Close()

	hits, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning muscle groups: %w", err)
	}
	return hits, nil
}

// TotalVolume sums weight x reps over the user's completed sets.
func (db *DB) TotalVolume(ctx context.Context, userID uuid.UUID) (float64, error) {
	var volume float64
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(s.weight * s.reps), 0)
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE w.user_id = $1 AND s.completed AND s.weight IS NOT NULL AND s.reps IS NOT NULL`,
		userID).Scan(&volume)
	if err != nil {
		return 0, fmt.Errorf("summing volume: %w", err)
	}
	return volume, nil
}
