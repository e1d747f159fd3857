package storage

import (
	"context"
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListTemplates returns system templates and the user's own, with their exercises.
func (db *DB) ListTemplates(ctx context.Context, userID uuid.UUID) ([]models.WorkoutTemplate, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, description, created_at
		 FROM workout_templates
		 WHERE user_id IS NULL OR user_id = $1
		 ORDER BY user_id NULLS FIRST, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	templates := []models.WorkoutTemplate{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var t models.WorkoutTemplate
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		t.Exercises = []models.TemplateExercise{}
		index[t.ID] = len(templates)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return templates, nil
	}

	ids := make([]uuid.UUID, 0, len(templates))
	for _, t := range templates {
		ids = append(ids, t.ID)
	}
	exercises, err := db.templateExercises(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, te := range exercises {
		i := index[te.TemplateID]
		templates[i].Exercises = append(templates[i].Exercises, te)
	}
	return templates, nil
}

// GetTemplate returns a system template or one of the user's own.
func (db *DB) GetTemplate(ctx context.Context, userID, templateID uuid.UUID) (*models.WorkoutTemplate, error) {
	var t models.WorkoutTemplate
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, description, created_at
		 FROM workout_templates
		 WHERE id = $1 AND (user_id IS NULL OR user_id = $2)`, templateID, userID,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", mapErr(err))
	}
	t.Exercises, err = db.templateExercises(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTemplate stores a user template with its exercises.
func (db *DB) InsertTemplate(ctx context.Context, t *models.WorkoutTemplate) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workout_templates (id, user_id, name, description)
			 VALUES ($1,$2,$3,$4)
			 RETURNING created_at`,
			t.ID, t.UserID, t.Name, t.Description,
		).Scan(&t.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting template: %w", err)
		}

		batch := &pgx.Batch{}
		for _, te := range t.Exercises {
			batch.Queue(
				`INSERT INTO template_exercises (id, template_id, exercise_id, sort_order, target_sets,
				 target_reps, target_weight, rest_seconds)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				te.ID, t.ID, te.ExerciseID, te.Order, te.TargetSets, te.TargetReps, te.TargetWeight, te.RestSeconds)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting template exercises: %w", err)
		}
		return nil
	})
}

func (db *DB) templateExercises(ctx context.Context, templateIDs []uuid.UUID) ([]models.TemplateExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT te.id, te.template_id, te.exercise_id, e.name, te.sort_order, te.target_sets,
		 te.target_reps, te.target_weight, te.rest_seconds
		 FROM template_exercises te
		 JOIN exercises e ON e.id = te.exercise_id
		 WHERE te.template_id = ANY($1)
		 ORDER BY te.template_id, te.sort_order`, templateIDs)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	result := []models.TemplateExercise{}
	for rows.Next() {
		var te models.TemplateExercise
		if err := rows.Scan(&te.ID, &te.TemplateID, &te.ExerciseID, &te.ExerciseName, &te.Order,
			&te.TargetSets, &te.TargetReps, &te.TargetWeight, &te.RestSeconds); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		result = append(result, te)
	}
	return result, rows.Err()
}
