package progress

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestStreak verifies consecutive-day counting anchored at today or yesterday.
func TestStreak(t *testing.T) {
	today := day(2026, 3, 11) // Wednesday
	ago := func(n int) time.Time { return today.AddDate(0, 0, -n) }

	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"today only", []time.Time{today}, 1},
		{"yesterday only", []time.Time{ago(1)}, 1},
		{"three in a row", []time.Time{today, ago(1), ago(2)}, 3},
		{"gap after today", []time.Time{today, ago(2)}, 1},
		{"chain from yesterday", []time.Time{ago(1), ago(2), ago(3)}, 3},
		{"stale history", []time.Time{ago(2), ago(3)}, 0},
		{"unordered input", []time.Time{ago(2), today, ago(1)}, 3},
		{"gap later in chain", []time.Time{today, ago(1), ago(3), ago(4)}, 2},
		{"time of day ignored", []time.Time{today.Add(20 * time.Hour), ago(1).Add(7 * time.Hour)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.dates, today); got != tt.want {
				t.Errorf("Streak = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestStreakDuplicatesIgnored verifies several workouts on one day never change the streak.
func TestStreakDuplicatesIgnored(t *testing.T) {
	today := day(2026, 3, 11)
	ago := func(n int) time.Time { return today.AddDate(0, 0, -n) }

	histories := [][]time.Time{
		{today, ago(1), ago(2)},
		{today, ago(2)},
		{ago(1), ago(2), ago(4)},
	}
	for _, h := range histories {
		doubled := append(append([]time.Time{}, h...), h...)
		if got, want := Streak(doubled, today), Streak(h, today); got != want {
			t.Errorf("Streak(with duplicates) = %d, want %d for %v", got, want, h)
		}
	}
}

// TestWeeklyCount verifies only workouts between Monday and Sunday of the
// current week are counted, including several on one day.
func TestWeeklyCount(t *testing.T) {
	monday := day(2026, 3, 9)

	tests := []struct {
		name  string
		today time.Time
		dates []time.Time
		want  int
	}{
		{"empty", monday, nil, 0},
		{"prior sunday excluded on monday", monday, []time.Time{monday.AddDate(0, 0, -1), monday}, 1},
		{"whole week on sunday", monday.AddDate(0, 0, 6), []time.Time{monday, monday.AddDate(0, 0, 3), monday.AddDate(0, 0, 6)}, 3},
		{"next monday excluded", monday.AddDate(0, 0, 2), []time.Time{monday.AddDate(0, 0, 7)}, 0},
		{"same day twice", monday.AddDate(0, 0, 1), []time.Time{monday, monday}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeklyCount(tt.dates, tt.today); got != tt.want {
				t.Errorf("WeeklyCount = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestWeekStart verifies Sunday belongs to the week that began six days earlier.
func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{day(2026, 3, 9), day(2026, 3, 9)},
		{day(2026, 3, 12), day(2026, 3, 9)},
		{day(2026, 3, 15), day(2026, 3, 9)},
		{day(2026, 3, 16), day(2026, 3, 16)},
	}
	for _, tt := range tests {
		if got := WeekStart(tt.in); !got.Equal(tt.want) {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.in.Format(time.DateOnly), got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
		}
	}
}

// TestSummarize verifies both dashboard numbers come from the same history.
func TestSummarize(t *testing.T) {
	today := day(2026, 3, 11)
	got := Summarize([]time.Time{today, today, today.AddDate(0, 0, -1), today.AddDate(0, 0, -5)}, today)
	if got.Streak != 2 {
		t.Errorf("Streak = %d, want 2", got.Streak)
	}
	if got.WeeklyCount != 3 {
		t.Errorf("WeeklyCount = %d, want 3", got.WeeklyCount)
	}
}
