package workouts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidTemplate is returned for templates that fail validation.
var ErrInvalidTemplate = errors.New("invalid template")

// TemplateRequest is a user template as submitted.
type TemplateRequest struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Exercises   []models.TemplateExercise `json:"exercises"`
}

// NewTemplate validates req and builds a template owned by userID with
// exercises ordered as given.
func NewTemplate(userID uuid.UUID, req TemplateRequest) (*models.WorkoutTemplate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(req.Exercises) == 0 {
		return nil, fmt.Errorf("%w: add at least one exercise", ErrInvalidTemplate)
	}

	t := &models.WorkoutTemplate{
		ID:          uuid.New(),
		UserID:      &userID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	for i, te := range req.Exercises {
		switch {
		case te.ExerciseID == uuid.Nil:
			return nil, fmt.Errorf("%w: exercise %d has no exercise_id", ErrInvalidTemplate, i+1)
		case te.TargetSets < 1:
			return nil, fmt.Errorf("%w: exercise %d needs at least one set", ErrInvalidTemplate, i+1)
		case te.TargetReps != nil && *te.TargetReps < 0,
			te.TargetWeight != nil && *te.TargetWeight < 0,
			te.RestSeconds != nil && *te.RestSeconds < 0:
			return nil, fmt.Errorf("%w: exercise %d has negative targets", ErrInvalidTemplate, i+1)
		}
		t.Exercises = append(t.Exercises, models.TemplateExercise{
			ID:           uuid.New(),
			TemplateID:   t.ID,
			ExerciseID:   te.ExerciseID,
			Order:        i,
			TargetSets:   te.TargetSets,
			TargetReps:   te.TargetReps,
			TargetWeight: te.TargetWeight,
			RestSeconds:  te.RestSeconds,
		})
	}
	return t, nil
}
