package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Profile holds a user's training preferences. Optional numeric fields are nil when unset.
type Profile struct {
	UserID              uuid.UUID    `json:"user_id"`
	Name                string       `json:"name"`
	Age                 *int         `json:"age"`
	Gender              string       `json:"gender"`
	HeightCm            *float64     `json:"height_cm"`
	WeightKg            *float64     `json:"weight_kg"`
	FitnessLevel        FitnessLevel `json:"fitness_level"`
	Goals               []string     `json:"goals"`
	Equipment           []string     `json:"equipment"`
	TrainingFrequency   *int         `json:"training_frequency"`
	Limitations         string       `json:"limitations"`
	PreferredDuration   *int         `json:"preferred_duration"`
	OnboardingCompleted bool         `json:"onboarding_completed"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Validate checks the profile invariants enforced on write.
func (p Profile) Validate() error {
	if p.FitnessLevel != "" && !p.FitnessLevel.Valid() {
		return fmt.Errorf("unknown fitness level %q", p.FitnessLevel)
	}
	if f := p.TrainingFrequency; f != nil && (*f < 1 || *f > 7) {
		return fmt.Errorf("training frequency must be between 1 and 7, got %d", *f)
	}
	if d := p.PreferredDuration; d != nil && *d <= 0 {
		return fmt.Errorf("preferred duration must be positive, got %d", *d)
	}
	if a := p.Age; a != nil && *a <= 0 {
		return fmt.Errorf("age must be positive, got %d", *a)
	}
	return nil
}
