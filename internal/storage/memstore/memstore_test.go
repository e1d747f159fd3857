package memstore

import (
	"errors"
	"testing"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/ptr"
	"github.com/google/uuid"
)

// TestRaiseRecord checks the set-if-greater rule: first write wins, equal
// values are ignored and greater values replace the row in place.
func TestRaiseRecord(t *testing.T) {
	s := New()
	ctx := t.Context()
	user, ex := uuid.New(), uuid.New()
	rec := func(v float64) models.PersonalRecord {
		return models.PersonalRecord{ID: uuid.New(), UserID: user, ExerciseID: ex, RecordType: models.MaxWeight, Value: v}
	}

	steps := []struct {
		value float64
		want  bool
	}{{100, true}, {100, false}, {95, false}, {102.5, true}}
	for _, st := range steps {
		_, got, err := s.RaiseRecord(ctx, rec(st.value))
		if err != nil {
			t.Fatal(err)
		}
		if got != st.want {
			t.Errorf("RaiseRecord(%v) = %v, want %v", st.value, got, st.want)
		}
	}

	all, _ := s.ListRecords(ctx, user, nil)
	if len(all) != 1 || all[0].Value != 102.5 {
		t.Errorf("records = %+v, want one at 102.5", all)
	}
}

// TestRaiseRecordKeepsID checks a raised record reports the id of the row
// it replaced rather than the id it was submitted with.
func TestRaiseRecordKeepsID(t *testing.T) {
	s := New()
	ctx := t.Context()
	user, ex := uuid.New(), uuid.New()
	first := models.PersonalRecord{ID: uuid.New(), UserID: user, ExerciseID: ex, RecordType: models.MaxWeight, Value: 80}

	id, ok, err := s.RaiseRecord(ctx, first)
	if err != nil || !ok || id != first.ID {
		t.Fatalf("first RaiseRecord = %v, %v, %v; want %v, true, nil", id, ok, err, first.ID)
	}

	heavier := first
	heavier.ID = uuid.New()
	heavier.Value = 85
	id, ok, err = s.RaiseRecord(ctx, heavier)
	if err != nil || !ok {
		t.Fatalf("second RaiseRecord = %v, %v, %v", id, ok, err)
	}
	stored, _ := s.ListRecords(ctx, user, &ex)
	if len(stored) != 1 || stored[0].ID != id || id != first.ID {
		t.Errorf("returned id %v, stored %+v, want both %v", id, stored, first.ID)
	}
}

// TestOneActiveEnrollment checks a second uncompleted enrollment conflicts
// and that completing the first frees the slot.
func TestOneActiveEnrollment(t *testing.T) {
	s := New()
	ctx := t.Context()
	user := uuid.New()
	first := models.UserActivePlan{ID: uuid.New(), UserID: user, PlanID: uuid.New(), CurrentWeek: 1, CurrentDay: 1}

	if err := s.InsertActivePlan(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := first
	second.ID = uuid.New()
	if err := s.InsertActivePlan(ctx, second); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("second enrollment err = %v, want ErrConflict", err)
	}

	done := first
	done.Completed = true
	if err := s.UpdateActivePlan(ctx, first, done); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetActivePlan(ctx, user); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("active after completion err = %v, want ErrNotFound", err)
	}
	if err := s.InsertActivePlan(ctx, second); err != nil {
		t.Errorf("enrolling after completion: %v", err)
	}
}

// TestUpdateActivePlanStale checks an update computed from an old position
// is refused and leaves the stored row alone, including a completed one.
func TestUpdateActivePlanStale(t *testing.T) {
	s := New()
	ctx := t.Context()
	user := uuid.New()
	start := models.UserActivePlan{ID: uuid.New(), UserID: user, PlanID: uuid.New(), CurrentWeek: 4, CurrentDay: 3}
	if err := s.InsertActivePlan(ctx, start); err != nil {
		t.Fatal(err)
	}

	done := start
	done.CurrentWeek, done.CurrentDay, done.Completed = 5, 1, true
	if err := s.UpdateActivePlan(ctx, start, done); err != nil {
		t.Fatalf("first advance: %v", err)
	}

	// A request that loaded the enrollment before completion writes it back
	// as still running.
	if err := s.UpdateActivePlan(ctx, start, start); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("stale advance err = %v, want ErrConflict", err)
	}
	if _, err := s.GetActivePlan(ctx, user); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("completed enrollment reopened: err = %v", err)
	}
}

// TestGetPlanOwnership checks private plans are only visible to their author.
func TestGetPlanOwnership(t *testing.T) {
	s := New()
	ctx := t.Context()
	author, other := uuid.New(), uuid.New()
	system := models.WorkoutPlan{ID: uuid.New(), Name: "Catalog", IsSystemPlan: true, Frequency: 3, DurationWeeks: 4}
	private := models.WorkoutPlan{ID: uuid.New(), Name: "Mine", CreatedBy: &author, Frequency: 2, DurationWeeks: 2}
	s.AddPlan(system)
	s.AddPlan(private)

	tests := []struct {
		name   string
		user   uuid.UUID
		plan   uuid.UUID
		wantOK bool
	}{
		{"system plan for anyone", other, system.ID, true},
		{"own plan", author, private.ID, true},
		{"someone else's plan", other, private.ID, false},
		{"unknown plan", author, uuid.New(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.GetPlan(ctx, tt.user, tt.plan)
			if tt.wantOK && err != nil {
				t.Errorf("GetPlan: %v", err)
			}
			if !tt.wantOK && !errors.Is(err, models.ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

// TestWorkoutOrderingAndVolume checks newest-first ordering, range filters
// and the volume and muscle aggregates.
func TestWorkoutOrderingAndVolume(t *testing.T) {
	s := New()
	s.SeedCatalog()
	ctx := t.Context()
	user := uuid.New()
	bench := seedID(1, 1)
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	for i, d := range []time.Time{day, day.AddDate(0, 0, 2), day.AddDate(0, 0, 1)} {
		w := &models.WorkoutDetail{
			Workout: models.Workout{ID: uuid.New(), UserID: user, Name: "W", Date: d},
			Exercises: []models.WorkoutExercise{{
				ID: uuid.New(), ExerciseID: bench,
				Sets: []models.Set{
					{ID: uuid.New(), SetNumber: 1, Reps: ptr.Ref(5), Weight: ptr.Ref(100.0 + float64(i)), Completed: true},
					{ID: uuid.New(), SetNumber: 2, Reps: ptr.Ref(5), Weight: ptr.Ref(50.0)},
				},
			}},
		}
		if err := s.InsertWorkout(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	dates, _ := s.WorkoutDates(ctx, user)
	if len(dates) != 3 || !dates[0].Equal(day.AddDate(0, 0, 2)) || !dates[2].Equal(day) {
		t.Errorf("dates = %v", dates)
	}
	ranged, _ := s.ListWorkouts(ctx, user, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	if len(ranged) != 1 {
		t.Errorf("ranged = %d workouts, want 1", len(ranged))
	}
	vol, _ := s.TotalVolume(ctx, user)
	if want := 5 * (100.0 + 101 + 102); vol != want {
		t.Errorf("volume = %v, want %v", vol, want)
	}
	hits, _ := s.MuscleHits(ctx, user)
	if len(hits) != 3 || hits[0] != "Chest" {
		t.Errorf("muscle hits = %v", hits)
	}
	if other, _ := s.AllWorkouts(ctx, uuid.New()); len(other) != 0 {
		t.Errorf("another user sees %d workouts", len(other))
	}
}

// TestExerciseVisibility checks custom exercises are private and names are
// unique per owner.
func TestExerciseVisibility(t *testing.T) {
	s := New()
	s.SeedCatalog()
	ctx := t.Context()
	alice, bob := uuid.New(), uuid.New()

	custom := models.Exercise{ID: uuid.New(), Name: "Zercher Squat", IsCustom: true, CreatedBy: &alice}
	if err := s.InsertExercise(ctx, custom); err != nil {
		t.Fatal(err)
	}
	dup := custom
	dup.ID, dup.Name = uuid.New(), "zercher squat"
	if err := s.InsertExercise(ctx, dup); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate err = %v, want ErrConflict", err)
	}
	if _, err := s.FindExerciseByName(ctx, alice, "ZERCHER SQUAT"); err != nil {
		t.Errorf("alice lookup: %v", err)
	}
	if _, err := s.FindExerciseByName(ctx, bob, "Zercher Squat"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("bob lookup err = %v, want ErrNotFound", err)
	}
	if _, err := s.FindExerciseByName(ctx, bob, "push-up"); err != nil {
		t.Errorf("system lookup: %v", err)
	}
}
