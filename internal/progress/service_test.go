package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/claude/fittrack/internal/ptr"
	"github.com/claude/fittrack/internal/testhelpers"
	"github.com/google/uuid"
)

type fakeStore struct {
	workouts []models.Workout
	records  []models.PersonalRecord
	profile  *models.Profile
	muscles  []string
	volume   float64
	err      error
}

func (f *fakeStore) WorkoutDates(_ context.Context, _ uuid.UUID) ([]time.Time, error) {
	var out []time.Time
	for _, w := range f.workouts {
		out = append(out, w.Date)
	}
	return out, f.err
}

func (f *fakeStore) AllWorkouts(_ context.Context, _ uuid.UUID) ([]models.Workout, error) {
	return f.workouts, f.err
}

func (f *fakeStore) RecentWorkouts(_ context.Context, _ uuid.UUID, limit int) ([]models.Workout, error) {
	return f.workouts[:min(limit, len(f.workouts))], nil
}

func (f *fakeStore) RecentRecords(_ context.Context, _ uuid.UUID, limit int) ([]models.PersonalRecord, error) {
	return f.records[:min(limit, len(f.records))], nil
}

func (f *fakeStore) GetProfile(_ context.Context, _ uuid.UUID) (*models.Profile, error) {
	if f.profile == nil {
		return nil, models.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeStore) MuscleHits(_ context.Context, _ uuid.UUID) ([]string, error) {
	return f.muscles, nil
}

func (f *fakeStore) TotalVolume(_ context.Context, _ uuid.UUID) (float64, error) {
	return f.volume, nil
}

type fakePlans struct {
	active *plans.ActivePlan
}

func (f fakePlans) Active(_ context.Context, _ uuid.UUID) (*plans.ActivePlan, error) {
	if f.active == nil {
		return nil, plans.ErrNoActivePlan
	}
	return f.active, nil
}

var serviceToday = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC) // Wednesday

func newTestService(t *testing.T, store Store, ap ActivePlans) *Service {
	s := NewService(store, ap, testhelpers.NewLogger(t))
	s.now = func() time.Time { return serviceToday }
	return s
}

func workoutOn(daysAgo int) models.Workout {
	return models.Workout{ID: uuid.New(), Date: models.Day(serviceToday).AddDate(0, 0, -daysAgo), DurationMinutes: ptr.Ref(40)}
}

// TestDashboard checks the assembled dashboard for a user with history,
// a profile goal and an active plan.
func TestDashboard(t *testing.T) {
	store := &fakeStore{
		workouts: []models.Workout{workoutOn(0), workoutOn(1), workoutOn(2), workoutOn(9), workoutOn(10), workoutOn(30)},
		records:  []models.PersonalRecord{{ID: uuid.New(), Value: 100}},
		profile:  &models.Profile{TrainingFrequency: ptr.Ref(4)},
	}
	active := &plans.ActivePlan{ProgressPercent: 25}
	d, err := newTestService(t, store, fakePlans{active: active}).Dashboard(t.Context(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if d.Streak != 3 {
		t.Errorf("streak = %d, want 3", d.Streak)
	}
	// Monday 6 May through Wednesday 8 May.
	if d.WeeklyCount != 3 {
		t.Errorf("weekly count = %d, want 3", d.WeeklyCount)
	}
	if d.WeeklyGoal != 4 {
		t.Errorf("weekly goal = %d, want 4", d.WeeklyGoal)
	}
	if len(d.RecentWorkouts) != 5 || len(d.RecentRecords) != 1 {
		t.Errorf("recent workouts = %d, records = %d", len(d.RecentWorkouts), len(d.RecentRecords))
	}
	if d.ActivePlan != active {
		t.Errorf("active plan = %+v", d.ActivePlan)
	}
}

// TestDashboardNewUser checks defaults for a user with no data at all.
func TestDashboardNewUser(t *testing.T) {
	d, err := newTestService(t, &fakeStore{}, fakePlans{}).Dashboard(t.Context(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if d.Streak != 0 || d.WeeklyCount != 0 || d.WeeklyGoal != 3 || d.ActivePlan != nil {
		t.Errorf("dashboard = %+v", d)
	}
	if d.RecentWorkouts == nil || d.RecentRecords == nil {
		t.Error("recent lists must be empty, not nil")
	}
}

// TestDashboardStoreError checks a failed fetch fails the dashboard.
func TestDashboardStoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := newTestService(t, &fakeStore{err: boom}, fakePlans{}).Dashboard(t.Context(), uuid.New())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

// TestStatisticsService checks the service feeds stored history into the aggregation.
func TestStatisticsService(t *testing.T) {
	store := &fakeStore{
		workouts: []models.Workout{workoutOn(0), workoutOn(1)},
		muscles:  []string{"Chest", "Chest", "Back"},
		volume:   1234.5,
	}
	st, err := newTestService(t, store, fakePlans{}).Statistics(t.Context(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalWorkouts != 2 || st.AvgDurationMinutes != 40 || st.TotalVolume != 1234.5 || st.CurrentStreak != 2 {
		t.Errorf("statistics = %+v", st)
	}
	if len(st.MuscleGroups) != 2 || st.MuscleGroups[0].Name != "Chest" {
		t.Errorf("muscle groups = %+v", st.MuscleGroups)
	}
}
