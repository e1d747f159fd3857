// Package plans ranks workout plans against a profile and tracks a user's
// progress through an enrolled plan.
package plans

import (
	"cmp"
	"slices"
	"strings"

	"github.com/claude/fittrack/internal/models"
)

// Points per scoring category.
const (
	goalPoints          = 40
	frequencyPoints     = 30
	nearFrequencyPoints = 15
	levelPoints         = 20
	equipmentPoints     = 10
)

// ScoredPlan is a plan annotated with its recommendation score.
type ScoredPlan struct {
	models.WorkoutPlan
	Score int `json:"score"`
}

// Score rates how well plan fits the profile. Categories are independent and
// additive; profile fields that are unset contribute nothing.
func Score(profile models.Profile, plan models.WorkoutPlan) int {
	score := 0

	goal := strings.ToLower(plan.Goal)
	if slices.ContainsFunc(profile.Goals, func(g string) bool {
		return strings.Contains(goal, strings.ToLower(g))
	}) {
		score += goalPoints
	}

	if f := profile.TrainingFrequency; f != nil && *f > 0 {
		switch diff := plan.Frequency - *f; {
		case diff == 0:
			score += frequencyPoints
		case diff == 1 || diff == -1:
			score += nearFrequencyPoints
		}
	}

	if profile.FitnessLevel != "" && profile.FitnessLevel == plan.Difficulty {
		score += levelPoints
	}

	// A plan that lists no equipment matches any profile that declares some.
	if len(profile.Equipment) > 0 && plan.EquipmentRequired != nil && hasEquipment(profile.Equipment, plan.EquipmentRequired) {
		score += equipmentPoints
	}

	return score
}

func hasEquipment(available, required []string) bool {
	for _, req := range required {
		req = strings.ToLower(req)
		if !slices.ContainsFunc(available, func(a string) bool {
			return strings.Contains(strings.ToLower(a), req)
		}) {
			return false
		}
	}
	return true
}

// Rank scores every plan and orders them by descending score. Plans with
// equal scores keep their input order.
func Rank(profile models.Profile, plans []models.WorkoutPlan) []ScoredPlan {
	scored := make([]ScoredPlan, len(plans))
	for i, p := range plans {
		scored[i] = ScoredPlan{WorkoutPlan: p, Score: Score(profile, p)}
	}
	slices.SortStableFunc(scored, func(a, b ScoredPlan) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}
