package storage

import (
	"context"
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
)

const planColumns = `id, name, description, duration_weeks, difficulty, goal, frequency,
	is_system_plan, equipment_required, created_by`

// ListSystemPlans returns the system plan catalog, served from the catalog
// cache when one is configured.
func (db *DB) ListSystemPlans(ctx context.Context) ([]models.WorkoutPlan, error) {
	if db.catalog != nil {
		if plans, ok := db.catalog.Catalog(); ok {
			return plans, nil
		}
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT `+planColumns+` FROM workout_plans
		 WHERE is_system_plan
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []models.WorkoutPlan{}
	for rows.Next() {
		var p models.WorkoutPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.DurationWeeks, &p.Difficulty, &p.Goal,
			&p.Frequency, &p.IsSystemPlan, &p.EquipmentRequired, &p.CreatedBy); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if db.catalog != nil {
		db.catalog.SetCatalog(plans)
	}
	return plans, nil
}

// GetPlan returns a system plan, or one of the user's own plans, with its
// scheduled workouts ordered by week and day. Other users' plans read as
// models.ErrNotFound.
func (db *DB) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*models.WorkoutPlan, error) {
	if db.catalog != nil {
		if p, ok := db.catalog.Plan(planID); ok {
			return p, nil
		}
	}

	var p models.WorkoutPlan
	err := db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM workout_plans
		 WHERE id = $1 AND (is_system_plan OR created_by = $2)`, planID, userID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.DurationWeeks, &p.Difficulty, &p.Goal,
		&p.Frequency, &p.IsSystemPlan, &p.EquipmentRequired, &p.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", mapErr(err))
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT pw.id, pw.plan_id, pw.week_number, pw.day_number, pw.workout_template_id, t.name
		 FROM plan_workouts pw
		 JOIN workout_templates t ON t.id = pw.workout_template_id
		 WHERE pw.plan_id = $1
		 ORDER BY pw.week_number, pw.day_number`, planID)
	if err != nil {
		return nil, fmt.Errorf("querying plan workouts: %w", err)
	}
	defer rows.Close()

	p.Workouts = []models.PlanWorkout{}
	for rows.Next() {
		var pw models.PlanWorkout
		if err := rows.Scan(&pw.ID, &pw.PlanID, &pw.WeekNumber, &pw.DayNumber, &pw.TemplateID, &pw.TemplateName); err != nil {
			return nil, fmt.Errorf("scanning plan workout: %w", err)
		}
		p.Workouts = append(p.Workouts, pw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if db.catalog != nil && p.IsSystemPlan {
		db.catalog.SetPlan(&p)
	}
	return &p, nil
}

// GetActivePlan returns the user's newest uncompleted enrollment.
func (db *DB) GetActivePlan(ctx context.Context, userID uuid.UUID) (*models.UserActivePlan, error) {
	var ap models.UserActivePlan
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, plan_id, start_date, current_week, current_day, completed, created_at
		 FROM user_active_plans
		 WHERE user_id = $1 AND NOT completed
		 ORDER BY created_at DESC
		 LIMIT 1`, userID,
	).Scan(&ap.ID, &ap.UserID, &ap.PlanID, &ap.StartDate, &ap.CurrentWeek, &ap.CurrentDay, &ap.Completed, &ap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying active plan: %w", mapErr(err))
	}
	return &ap, nil
}

// InsertActivePlan stores a new enrollment. A second uncompleted enrollment
// for the same user yields models.ErrConflict.
func (db *DB) InsertActivePlan(ctx context.Context, ap models.UserActivePlan) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO user_active_plans (id, user_id, plan_id, start_date, current_week, current_day, completed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ap.ID, ap.UserID, ap.PlanID, ap.StartDate, ap.CurrentWeek, ap.CurrentDay, ap.Completed)
	if err != nil {
		return fmt.Errorf("inserting active plan: %w", mapErr(err))
	}
	return nil
}

// UpdateActivePlan moves an unfinished enrollment from the position in from
// to the one in to. When the stored row no longer matches from, because a
// concurrent update moved or completed it, nothing is written and
// models.ErrConflict is returned.
func (db *DB) UpdateActivePlan(ctx context.Context, from, to models.UserActivePlan) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE user_active_plans
		 SET current_week = $3, current_day = $4, completed = $5
		 WHERE id = $1 AND user_id = $2
		   AND current_week = $6 AND current_day = $7 AND NOT completed`,
		to.ID, to.UserID, to.CurrentWeek, to.CurrentDay, to.Completed,
		from.CurrentWeek, from.CurrentDay)
	if err != nil {
		return fmt.Errorf("updating active plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating active plan: %w", models.ErrConflict)
	}
	return nil
}
