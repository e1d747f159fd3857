package storage

import (
	"context"
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
)

// GetProfile returns the user's profile or models.ErrNotFound.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, name, age, gender, height_cm, weight_kg, fitness_level, goals, equipment,
		 training_frequency, limitations, preferred_duration, onboarding_completed, updated_at
		 FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Name, &p.Age, &p.Gender, &p.HeightCm, &p.WeightKg, &p.FitnessLevel,
		&p.Goals, &p.Equipment, &p.TrainingFrequency, &p.Limitations, &p.PreferredDuration,
		&p.OnboardingCompleted, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", mapErr(err))
	}
	return &p, nil
}

// UpsertProfile writes the whole profile and returns the stored row.
func (db *DB) UpsertProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO profiles (user_id, name, age, gender, height_cm, weight_kg, fitness_level, goals,
		 equipment, training_frequency, limitations, preferred_duration, onboarding_completed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (user_id) DO UPDATE SET
		 name = EXCLUDED.name, age = EXCLUDED.age, gender = EXCLUDED.gender,
		 height_cm = EXCLUDED.height_cm, weight_kg = EXCLUDED.weight_kg,
		 fitness_level = EXCLUDED.fitness_level, goals = EXCLUDED.goals, equipment = EXCLUDED.equipment,
		 training_frequency = EXCLUDED.training_frequency, limitations = EXCLUDED.limitations,
		 preferred_duration = EXCLUDED.preferred_duration,
		 onboarding_completed = EXCLUDED.onboarding_completed, updated_at = NOW()
		 RETURNING updated_at`,
		p.UserID, p.Name, p.Age, p.Gender, p.HeightCm, p.WeightKg, p.FitnessLevel,
		nonNil(p.Goals), nonNil(p.Equipment), p.TrainingFrequency, p.Limitations,
		p.PreferredDuration, p.OnboardingCompleted,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
