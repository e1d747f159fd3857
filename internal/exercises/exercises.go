// Package exercises validates custom exercises and filters the library.
package exercises

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidExercise is returned for custom exercises that fail validation.
var ErrInvalidExercise = errors.New("invalid exercise")

// NewCustom validates ex and returns it as a custom exercise owned by userID.
func NewCustom(userID uuid.UUID, ex models.Exercise) (models.Exercise, error) {
	ex.Name = strings.TrimSpace(ex.Name)
	if ex.Name == "" {
		return ex, fmt.Errorf("%w: name is required", ErrInvalidExercise)
	}
	if !slices.Contains(models.ExerciseCategories, ex.Category) {
		return ex, fmt.Errorf("%w: unknown category %q", ErrInvalidExercise, ex.Category)
	}
	if !ex.Difficulty.Valid() {
		return ex, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidExercise, ex.Difficulty)
	}
	ex.MusclesPrimary = compact(ex.MusclesPrimary)
	if len(ex.MusclesPrimary) == 0 {
		return ex, fmt.Errorf("%w: at least one primary muscle group is required", ErrInvalidExercise)
	}
	ex.MusclesSecondary = compact(ex.MusclesSecondary)
	ex.Equipment = compact(ex.Equipment)
	ex.Instructions = compact(ex.Instructions)

	ex.ID = uuid.New()
	ex.IsCustom = true
	ex.CreatedBy = &userID
	return ex, nil
}

// compact trims entries and drops blanks.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Filter narrows a library listing.
type Filter struct {
	Category string
	Muscle   string
	Query    string
}

// Apply returns the exercises matching every set field of f. Muscle matches
// primary or secondary groups; Query is a case-insensitive name substring.
func (f Filter) Apply(list []models.Exercise) []models.Exercise {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []models.Exercise
	for _, ex := range list {
		if f.Category != "" && !strings.EqualFold(ex.Category, f.Category) {
			continue
		}
		if f.Muscle != "" && !containsFold(ex.MusclesPrimary, f.Muscle) && !containsFold(ex.MusclesSecondary, f.Muscle) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(ex.Name), q) {
			continue
		}
		out = append(out, ex)
	}
	return out
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}
