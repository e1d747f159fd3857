package plans

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/claude/fittrack/internal/models"
)

var (
	// ErrPlanCompleted is returned when advancing an enrollment that has finished.
	ErrPlanCompleted = errors.New("plan already completed")

	// ErrInvalidPlan is returned for plans without a positive frequency or duration.
	ErrInvalidPlan = errors.New("invalid plan")
)

func checkPlan(plan models.WorkoutPlan) error {
	if plan.Frequency <= 0 || plan.DurationWeeks <= 0 {
		return fmt.Errorf("%w: frequency %d, duration %d weeks", ErrInvalidPlan, plan.Frequency, plan.DurationWeeks)
	}
	return nil
}

// Advance moves the enrollment to the next training day. After the last day
// of a week it wraps to day 1 of the following week; moving past the final
// week marks the enrollment completed. Week and day are stored as computed,
// so a completed enrollment points one week past the plan.
func Advance(ap models.UserActivePlan, plan models.WorkoutPlan) (models.UserActivePlan, error) {
	if ap.Completed {
		return ap, ErrPlanCompleted
	}
	if err := checkPlan(plan); err != nil {
		return ap, err
	}

	next := ap
	next.CurrentDay++
	if next.CurrentDay > plan.Frequency {
		next.CurrentDay = 1
		next.CurrentWeek++
	}
	next.Completed = next.CurrentWeek > plan.DurationWeeks
	return next, nil
}

// ProgressPercent reports how many training days of the plan lie behind the
// enrollment's position, as a whole percentage capped at 100.
func ProgressPercent(ap models.UserActivePlan, plan models.WorkoutPlan) int {
	if checkPlan(plan) != nil {
		return 0
	}
	if ap.Completed {
		return 100
	}
	done := (ap.CurrentWeek-1)*plan.Frequency + (ap.CurrentDay - 1)
	total := plan.DurationWeeks * plan.Frequency
	pct := int(math.Round(float64(done) / float64(total) * 100))
	return min(max(pct, 0), 100)
}

// TodaysWorkouts returns the plan slots scheduled for the enrollment's current week and day.
func TodaysWorkouts(ap models.UserActivePlan, plan models.WorkoutPlan) []models.PlanWorkout {
	var out []models.PlanWorkout
	for _, pw := range plan.Workouts {
		if pw.WeekNumber == ap.CurrentWeek && pw.DayNumber == ap.CurrentDay {
			out = append(out, pw)
		}
	}
	return out
}

// Week is one week of a plan's schedule.
type Week struct {
	Number   int                  `json:"week_number"`
	Workouts []models.PlanWorkout `json:"workouts"`
}

// Schedule groups the plan's slots by week, ordered by week then day.
// Weeks without slots are included so the result has DurationWeeks entries.
func Schedule(plan models.WorkoutPlan) []Week {
	weeks := make([]Week, max(plan.DurationWeeks, 0))
	for i := range weeks {
		weeks[i] = Week{Number: i + 1, Workouts: []models.PlanWorkout{}}
	}
	for _, pw := range plan.Workouts {
		if pw.WeekNumber < 1 || pw.WeekNumber > len(weeks) {
			continue
		}
		weeks[pw.WeekNumber-1].Workouts = append(weeks[pw.WeekNumber-1].Workouts, pw)
	}
	for _, w := range weeks {
		slices.SortStableFunc(w.Workouts, func(a, b models.PlanWorkout) int { return cmp.Compare(a.DayNumber, b.DayNumber) })
	}
	return weeks
}
