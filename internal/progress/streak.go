// Package progress computes activity summaries from a user's workout history.
package progress

import (
	"slices"
	"time"

	"github.com/claude/fittrack/internal/models"
)

// Summary is the activity block shown on the dashboard.
type Summary struct {
	Streak      int `json:"streak"`
	WeeklyCount int `json:"weekly_count"`
}

// Summarize computes the streak and weekly count for the given workout dates.
func Summarize(dates []time.Time, today time.Time) Summary {
	return Summary{
		Streak:      Streak(dates, today),
		WeeklyCount: WeeklyCount(dates, today),
	}
}

// Streak returns the number of consecutive training days ending today or
// yesterday. Several workouts on one day count once. The i-th most recent
// distinct day must be at most i+1 days before today and exactly one day
// before the day ranked above it; the first date failing either check ends
// the streak.
func Streak(dates []time.Time, today time.Time) int {
	days := distinctDaysDesc(dates)
	today = models.Day(today)

	streak := 0
	for i, d := range days {
		if daysBetween(d, today) > i+1 {
			break
		}
		if i > 0 && daysBetween(d, days[i-1]) != 1 {
			break
		}
		streak++
	}
	return streak
}

// WeeklyCount returns the number of workouts dated within the Monday to
// Sunday week containing today. Each date is one workout.
func WeeklyCount(dates []time.Time, today time.Time) int {
	start := WeekStart(today)
	end := start.AddDate(0, 0, 6)

	n := 0
	for _, d := range dates {
		d = models.Day(d)
		if !d.Before(start) && !d.After(end) {
			n++
		}
	}
	return n
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := models.Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func distinctDaysDesc(dates []time.Time) []time.Time {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, models.Day(d))
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return slices.CompactFunc(days, func(a, b time.Time) bool { return a.Equal(b) })
}

// daysBetween returns the whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(models.Day(b).Sub(models.Day(a)).Hours() / 24)
}
