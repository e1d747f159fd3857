package models

import "github.com/google/uuid"

// Exercise is a library entry. CreatedBy is set for custom exercises.
type Exercise struct {
	ID               uuid.UUID    `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	MusclesPrimary   []string     `json:"muscle_groups_primary"`
	MusclesSecondary []string     `json:"muscle_groups_secondary"`
	Equipment        []string     `json:"equipment"`
	Difficulty       FitnessLevel `json:"difficulty"`
	Instructions     []string     `json:"instructions"`
	Category         string       `json:"category"`
	IsCustom         bool         `json:"is_custom"`
	CreatedBy        *uuid.UUID   `json:"created_by"`
}

// Catalog values offered by the onboarding and exercise forms.
var (
	Goals = []string{"Weight loss", "Muscle gain", "Strength", "Endurance", "General fitness"}

	EquipmentOptions = []string{
		"Bodyweight", "Dumbbells", "Barbell", "Gym access", "Home gym", "Resistance bands", "Kettlebell",
	}

	ExerciseCategories = []string{"Strength", "Cardio", "Flexibility", "Core", "Compound", "Isolation"}

	MuscleGroups = []string{
		"Chest", "Back", "Shoulders", "Biceps", "Triceps", "Quadriceps",
		"Hamstrings", "Glutes", "Calves", "Core", "Full Body", "Forearms",
	}

	DurationOptions = []int{15, 30, 45, 60, 90}
)
