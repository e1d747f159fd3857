package progress

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/claude/fittrack/internal/models"
)

const (
	distributionDays = 28
	topMuscleGroups  = 8
)

// MuscleCount is the number of logged exercises that hit a primary muscle group.
type MuscleCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// WeekdayCount is the number of workouts on a weekday in the distribution window.
type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Statistics is the aggregate view of a user's training history.
type Statistics struct {
	TotalWorkouts      int            `json:"total_workouts"`
	AvgDurationMinutes int            `json:"avg_duration_minutes"`
	AvgWorkoutsPerWeek float64        `json:"avg_workouts_per_week"`
	TotalVolume        float64        `json:"total_volume"`
	CurrentStreak      int            `json:"current_streak"`
	Weekdays           []WeekdayCount `json:"weekdays"`
	MuscleGroups       []MuscleCount  `json:"muscle_groups"`
}

// StatsInput is the raw history Statistics are derived from.
type StatsInput struct {
	Workouts []models.Workout
	// MuscleHits holds one entry per (logged exercise, primary muscle group).
	MuscleHits []string
	// Volume is the sum of weight x reps over completed sets.
	Volume float64
}

var weekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ComputeStatistics aggregates the input relative to today.
func ComputeStatistics(in StatsInput, today time.Time) Statistics {
	st := Statistics{
		TotalWorkouts: len(in.Workouts),
		TotalVolume:   in.Volume,
		Weekdays:      make([]WeekdayCount, len(weekdayNames)),
	}
	for i, name := range weekdayNames {
		st.Weekdays[i].Day = name
	}

	dates := make([]time.Time, 0, len(in.Workouts))
	totalDuration := 0
	for _, w := range in.Workouts {
		dates = append(dates, w.Date)
		if w.DurationMinutes != nil {
			totalDuration += *w.DurationMinutes
		}
	}
	st.CurrentStreak = Streak(dates, today)

	if st.TotalWorkouts > 0 {
		st.AvgDurationMinutes = int(math.Round(float64(totalDuration) / float64(st.TotalWorkouts)))
	}

	if len(dates) > 1 {
		first := slices.MinFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
		last := slices.MaxFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
		weeks := max(1, int(math.Ceil(float64(daysBetween(first, last))/7)))
		st.AvgWorkoutsPerWeek = math.Round(float64(st.TotalWorkouts)/float64(weeks)*10) / 10
	}

	since := models.Day(today).AddDate(0, 0, -(distributionDays - 1))
	for _, d := range dates {
		d = models.Day(d)
		if d.Before(since) {
			continue
		}
		st.Weekdays[(int(d.Weekday())+6)%7].Count++
	}

	st.MuscleGroups = topMuscles(in.MuscleHits, topMuscleGroups)
	return st
}

func topMuscles(hits []string, n int) []MuscleCount {
	counts := map[string]int{}
	for _, m := range hits {
		counts[m]++
	}
	out := make([]MuscleCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, MuscleCount{Name: name, Count: c})
	}
	slices.SortFunc(out, func(a, b MuscleCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
