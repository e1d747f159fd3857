package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workoutColumns = `id, user_id, name, date, duration_minutes, notes, completed, created_at`

// InsertWorkout writes the workout, its exercises and their sets in one transaction.
func (db *DB) InsertWorkout(ctx context.Context, w *models.WorkoutDetail) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workouts (id, user_id, name, date, duration_minutes, notes, completed)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)
			 RETURNING created_at`,
			w.ID, w.UserID, w.Name, w.Date, w.DurationMinutes, w.Notes, w.Completed,
		).Scan(&w.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}
		if err := insertWorkoutExercises(ctx, tx, w.Exercises); err != nil {
			return err
		}
		var sets []models.Set
		for _, we := range w.Exercises {
			sets = append(sets, we.Sets...)
		}
		return insertSets(ctx, tx, sets)
	})
}

func insertWorkoutExercises(ctx context.Context, tx pgx.Tx, rows []models.WorkoutExercise) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO workout_exercises (id, workout_id, exercise_id, sort_order, notes) VALUES `
	args := make([]any, 0, len(rows)*5)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 5
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args, r.ID, r.WorkoutID, r.ExerciseID, r.Order, r.Notes)
	}

	if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting workout exercises: %w", err)
	}
	return nil
}

func insertSets(ctx context.Context, tx pgx.Tx, rows []models.Set) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO sets (id, workout_exercise_id, set_number, reps, weight, rest_seconds, rpe, completed) VALUES `
	args := make([]any, 0, len(rows)*8)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 8
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, r.ID, r.WorkoutExerciseID, r.SetNumber, r.Reps, r.Weight, r.RestSeconds, r.RPE, r.Completed)
	}

	if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting sets: %w", err)
	}
	return nil
}

// ListWorkouts retrieves workouts dated in [start, end), newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date DESC, created_at DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkoutRows(rows)
}

// AllWorkouts retrieves the user's full history, newest first.
func (db *DB) AllWorkouts(ctx context.Context, userID uuid.UUID) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkoutRows(rows)
}

// RecentWorkouts retrieves the user's latest workouts.
func (db *DB) RecentWorkouts(ctx context.Context, userID uuid.UUID, limit int) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkoutRows(rows)
}

// WorkoutExists reports whether the user already has a workout with this
// name on this date. Importers use it to skip sessions seen before.
func (db *DB) WorkoutExists(ctx context.Context, userID uuid.UUID, date time.Time, name string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM workouts WHERE user_id = $1 AND date = $2 AND name = $3)`,
		userID, date, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking workout: %w", err)
	}
	return exists, nil
}

// WorkoutDates returns the date of every workout the user logged.
func (db *DB) WorkoutDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date FROM workouts WHERE user_id = $1 ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout dates: %w", err)
	}
	defer rows.Close()

	dates, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("scanning workout dates: %w", err)
	}
	return dates, nil
}

// GetWorkout retrieves a single workout with its exercises and sets.
func (db *DB) GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (*models.WorkoutDetail, error) {
	var w models.Workout
	err := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`,
		workoutID, userID,
	).Scan(&w.ID, &w.UserID, &w.Name, &w.Date, &w.DurationMinutes, &w.Notes, &w.Completed, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", mapErr(err))
	}

	detail := &models.WorkoutDetail{Workout: w, Exercises: []models.WorkoutExercise{}}

	exRows, err := db.Pool.Query(ctx,
		`SELECT we.id, we.workout_id, we.exercise_id, e.name, we.sort_order, we.notes
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY we.sort_order ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer exRows.Close()

	index := map[uuid.UUID]int{}
	for exRows.Next() {
		var we models.WorkoutExercise
		if err := exRows.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.ExerciseName, &we.Order, &we.Notes); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		we.Sets = []models.Set{}
		index[we.ID] = len(detail.Exercises)
		detail.Exercises = append(detail.Exercises, we)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.workout_exercise_id, s.set_number, s.reps, s.weight, s.rest_seconds, s.rpe, s.completed
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY s.set_number ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var s models.Set
		if err := setRows.Scan(&s.ID, &s.WorkoutExerciseID, &s.SetNumber, &s.Reps, &s.Weight,
			&s.RestSeconds, &s.RPE, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		if i, ok := index[s.WorkoutExerciseID]; ok {
			detail.Exercises[i].Sets = append(detail.Exercises[i].Sets, s)
		}
	}

	return detail, setRows.Err()
}

// DeleteWorkout removes a workout and, by cascade, its exercises and sets.
// Records keep their values with the workout reference cleared.
func (db *DB) DeleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanWorkoutRows(rows pgx.Rows) ([]models.Workout, error) {
	result := []models.Workout{}
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Date, &w.DurationMinutes, &w.Notes,
			&w.Completed, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
