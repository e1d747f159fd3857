package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutTemplate is a reusable list of exercises with targets.
// UserID is nil for system templates.
type WorkoutTemplate struct {
	ID          uuid.UUID          `json:"id"`
	UserID      *uuid.UUID         `json:"user_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Exercises   []TemplateExercise `json:"exercises"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TemplateExercise is one exercise slot in a template.
type TemplateExercise struct {
	ID           uuid.UUID `json:"id"`
	TemplateID   uuid.UUID `json:"template_id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name,omitempty"`
	Order        int       `json:"order"`
	TargetSets   int       `json:"target_sets"`
	TargetReps   *int      `json:"target_reps"`
	TargetWeight *float64  `json:"target_weight"`
	RestSeconds  *int      `json:"rest_seconds"`
}

// WorkoutPlan is a multi-week program. EquipmentRequired is nil when the plan
// declares nothing and empty when it declares no equipment is needed.
type WorkoutPlan struct {
	ID                uuid.UUID     `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	DurationWeeks     int           `json:"duration_weeks"`
	Difficulty        FitnessLevel  `json:"difficulty"`
	Goal              string        `json:"goal"`
	Frequency         int           `json:"frequency"`
	IsSystemPlan      bool          `json:"is_system_plan"`
	EquipmentRequired []string      `json:"equipment_required"`
	CreatedBy         *uuid.UUID    `json:"created_by"`
	Workouts          []PlanWorkout `json:"workouts,omitempty"`
}

// PlanWorkout is the template scheduled for a (week, day) slot of a plan.
type PlanWorkout struct {
	ID           uuid.UUID `json:"id"`
	PlanID       uuid.UUID `json:"plan_id"`
	WeekNumber   int       `json:"week_number"`
	DayNumber    int       `json:"day_number"`
	TemplateID   uuid.UUID `json:"workout_template_id"`
	TemplateName string    `json:"template_name,omitempty"`
}

// UserActivePlan is a user's enrollment in a plan. Once Completed is set the
// enrollment is terminal; CurrentWeek may then exceed the plan's duration.
type UserActivePlan struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	PlanID      uuid.UUID `json:"plan_id"`
	StartDate   time.Time `json:"start_date"`
	CurrentWeek int       `json:"current_week"`
	CurrentDay  int       `json:"current_day"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}
