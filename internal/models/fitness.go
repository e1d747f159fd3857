package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// FitnessLevel is a self-assessed training level, also used as plan and exercise difficulty.
type FitnessLevel string

const (
	Beginner     FitnessLevel = "beginner"
	Intermediate FitnessLevel = "intermediate"
	Advanced     FitnessLevel = "advanced"
)

// Valid reports whether l is one of the known levels.
func (l FitnessLevel) Valid() bool {
	switch l {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// User is an authenticated identity. Login is the stable external name
// (Tailscale login or the configured dev user).
type User struct {
	ID          uuid.UUID `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Workout is a logged training session. Date has no time component.
type Workout struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	Date            time.Time `json:"date"`
	DurationMinutes *int      `json:"duration_minutes"`
	Notes           string    `json:"notes"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"created_at"`
}

// WorkoutExercise is an ordered exercise entry within a workout.
type WorkoutExercise struct {
	ID           uuid.UUID `json:"id"`
	WorkoutID    uuid.UUID `json:"workout_id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name,omitempty"`
	Order        int       `json:"order"`
	Notes        string    `json:"notes"`
	Sets         []Set     `json:"sets"`
}

// Set is a single set of an exercise. Weight is in kilograms.
type Set struct {
	ID                uuid.UUID `json:"id"`
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	SetNumber         int       `json:"set_number"`
	Reps              *int      `json:"reps"`
	Weight            *float64  `json:"weight"`
	RestSeconds       *int      `json:"rest_seconds"`
	RPE               *int      `json:"rpe"`
	Completed         bool      `json:"completed"`
}

// WorkoutDetail is a workout with its exercises and sets.
type WorkoutDetail struct {
	Workout
	Exercises []WorkoutExercise `json:"exercises"`
}

// RecordType is the metric a personal record tracks.
type RecordType string

const (
	MaxWeight RecordType = "max_weight"
	MaxReps   RecordType = "max_reps"
	MaxVolume RecordType = "max_volume"
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	switch t {
	case MaxWeight, MaxReps, MaxVolume:
		return true
	}
	return false
}

// PersonalRecord is the current best for a (user, exercise, record type) key.
// Updates replace the row; superseded values are not kept.
type PersonalRecord struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	ExerciseID   uuid.UUID  `json:"exercise_id"`
	ExerciseName string     `json:"exercise_name,omitempty"`
	RecordType   RecordType `json:"record_type"`
	Value        float64    `json:"value"`
	Date         time.Time  `json:"date"`
	WorkoutID    *uuid.UUID `json:"workout_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// BodyMetric is a dated set of body measurements. Weight in kg, girths in cm.
type BodyMetric struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Date   time.Time `json:"date"`
	Weight *float64  `json:"weight"`
	Chest  *float64  `json:"chest"`
	Waist  *float64  `json:"waist"`
	Hips   *float64  `json:"hips"`
	Arms   *float64  `json:"arms"`
	Legs   *float64  `json:"legs"`
}

// Day truncates t to its calendar date, expressed as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
