package memstore

import (
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/ptr"
	"github.com/google/uuid"
)

// AddExercise stores a system or custom exercise without the name check.
func (s *Store) AddExercise(ex models.Exercise) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises[ex.ID] = ex
}

// AddTemplate stores a template as is.
func (s *Store) AddTemplate(t models.WorkoutTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
}

func seedID(kind, n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("%d0000000-0000-0000-0000-%012d", kind, n))
}

// SeedCatalog loads a small system catalog: the same ids as the SQL seed
// for the exercises, templates and plans it includes.
func (s *Store) SeedCatalog() {
	type ex struct {
		n         int
		name      string
		primary   []string
		equipment []string
		level     models.FitnessLevel
		category  string
	}
	for _, e := range []ex{
		{1, "Barbell Bench Press", []string{"Chest"}, []string{"Barbell", "Gym access"}, models.Intermediate, "Compound"},
		{2, "Barbell Back Squat", []string{"Quadriceps", "Glutes"}, []string{"Barbell", "Gym access"}, models.Intermediate, "Compound"},
		{5, "Barbell Row", []string{"Back"}, []string{"Barbell", "Gym access"}, models.Intermediate, "Compound"},
		{7, "Push-Up", []string{"Chest"}, []string{"Bodyweight"}, models.Beginner, "Compound"},
		{8, "Bodyweight Squat", []string{"Quadriceps", "Glutes"}, []string{"Bodyweight"}, models.Beginner, "Strength"},
		{12, "Plank", []string{"Core"}, []string{"Bodyweight"}, models.Beginner, "Core"},
	} {
		s.AddExercise(models.Exercise{
			ID:               seedID(1, e.n),
			Name:             e.name,
			MusclesPrimary:   e.primary,
			MusclesSecondary: []string{},
			Equipment:        e.equipment,
			Difficulty:       e.level,
			Instructions:     []string{},
			Category:         e.category,
		})
	}

	slot := func(tpl, n, exercise, sets, reps int) models.TemplateExercise {
		return models.TemplateExercise{
			ID: uuid.New(), TemplateID: seedID(2, tpl), ExerciseID: seedID(1, exercise),
			Order: n, TargetSets: sets, TargetReps: ptr.Ref(reps),
		}
	}
	s.AddTemplate(models.WorkoutTemplate{
		ID: seedID(2, 1), Name: "Full Body A", Description: "Squat, bench and row.",
		Exercises: []models.TemplateExercise{slot(1, 0, 2, 3, 5), slot(1, 1, 1, 3, 5), slot(1, 2, 5, 3, 5)},
	})
	s.AddTemplate(models.WorkoutTemplate{
		ID: seedID(2, 3), Name: "Bodyweight Basics", Description: "No equipment full body circuit.",
		Exercises: []models.TemplateExercise{slot(3, 0, 7, 3, 10), slot(3, 1, 8, 3, 15), slot(3, 2, 12, 3, 1)},
	})

	schedule := func(plan, weeks, days int, tpl func(week, day int) int) []models.PlanWorkout {
		var out []models.PlanWorkout
		for w := 1; w <= weeks; w++ {
			for d := 1; d <= days; d++ {
				out = append(out, models.PlanWorkout{
					ID: uuid.New(), PlanID: seedID(3, plan), WeekNumber: w, DayNumber: d, TemplateID: seedID(2, tpl(w, d)),
				})
			}
		}
		return out
	}
	s.AddPlan(models.WorkoutPlan{
		ID: seedID(3, 1), Name: "Bodyweight Foundations", Description: "Three short full body sessions a week with no equipment.",
		DurationWeeks: 4, Difficulty: models.Beginner, Goal: "General fitness", Frequency: 3, IsSystemPlan: true,
		EquipmentRequired: []string{"Bodyweight"},
		Workouts:          schedule(1, 4, 3, func(int, int) int { return 3 }),
	})
	s.AddPlan(models.WorkoutPlan{
		ID: seedID(3, 2), Name: "Barbell Strength Builder", Description: "Full body barbell sessions.",
		DurationWeeks: 8, Difficulty: models.Intermediate, Goal: "Strength", Frequency: 3, IsSystemPlan: true,
		EquipmentRequired: []string{"Barbell", "Gym access"},
		Workouts:          schedule(2, 8, 3, func(int, int) int { return 1 }),
	})
}
