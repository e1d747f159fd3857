// Package workouts saves logged workouts and runs record detection on them.
package workouts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/ptr"
	"github.com/claude/fittrack/internal/records"
	"github.com/google/uuid"
)

const (
	minutesPerSet      = 3
	minEstimateMinutes = 15
	defaultName        = "Workout"
)

var (
	// ErrInvalidWorkout is returned for requests that cannot be saved.
	ErrInvalidWorkout = errors.New("invalid workout")

	// ErrRecordsIncomplete is returned alongside a saved workout when record
	// detection failed part way.
	ErrRecordsIncomplete = errors.New("personal record check incomplete")
)

// Store persists workouts.
type Store interface {
	// GetExercises returns the exercises with the given ids visible to the user.
	GetExercises(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Exercise, error)
	// InsertWorkout writes the workout with its exercises and sets atomically.
	InsertWorkout(ctx context.Context, w *models.WorkoutDetail) error
	GetTemplate(ctx context.Context, userID, templateID uuid.UUID) (*models.WorkoutTemplate, error)
}

// RecordEvaluator detects new personal records in a saved workout.
type RecordEvaluator interface {
	Evaluate(ctx context.Context, b records.Batch) ([]models.PersonalRecord, error)
}

// SetInput is one entered set. A set with neither reps nor weight is dropped.
type SetInput struct {
	Reps        *int     `json:"reps"`
	Weight      *float64 `json:"weight"`
	RPE         *int     `json:"rpe"`
	RestSeconds *int     `json:"rest_seconds"`
}

// ExerciseInput is one exercise with its entered sets.
type ExerciseInput struct {
	ExerciseID uuid.UUID  `json:"exercise_id"`
	Notes      string     `json:"notes"`
	Sets       []SetInput `json:"sets"`
}

// LogRequest describes a workout to save. Date is YYYY-MM-DD and defaults to
// today; DurationMinutes is estimated from the entered sets when nil.
type LogRequest struct {
	Name            string          `json:"name"`
	Date            string          `json:"date"`
	Notes           string          `json:"notes"`
	DurationMinutes *int            `json:"duration_minutes"`
	Exercises       []ExerciseInput `json:"exercises"`
}

// LogResult is the saved workout and the records it set.
type LogResult struct {
	Workout    models.WorkoutDetail    `json:"workout"`
	NewRecords []models.PersonalRecord `json:"new_records"`
	Messages   []string                `json:"messages"`
}

// Service logs workouts.
type Service struct {
	store     Store
	evaluator RecordEvaluator
	metrics   *metrics.Manager
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a workout service.
func NewService(store Store, evaluator RecordEvaluator, m *metrics.Manager, log *slog.Logger) *Service {
	return &Service{store: store, evaluator: evaluator, metrics: m, log: log, now: time.Now}
}

// Log validates and saves a workout, then checks its sets for new records.
// Every saved set is marked completed. If record detection fails after the
// workout was saved, the result is returned together with an error wrapping
// ErrRecordsIncomplete.
func (s *Service) Log(ctx context.Context, userID uuid.UUID, req LogRequest) (*LogResult, error) {
	detail, err := s.build(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertWorkout(ctx, detail); err != nil {
		return nil, fmt.Errorf("saving workout: %w", err)
	}
	s.metrics.CounterWorkoutsLogged.Inc()
	s.log.InfoContext(ctx, "workout logged", "user_id", userID, "workout_id", detail.ID, "exercises", len(detail.Exercises))

	res := &LogResult{Workout: *detail}
	recs, err := s.evaluator.Evaluate(ctx, batchFor(detail))
	res.NewRecords = recs
	for _, r := range recs {
		res.Messages = append(res.Messages, records.Message(r))
	}
	if err != nil {
		s.log.ErrorContext(ctx, "personal record check failed", "workout_id", detail.ID, "error", err)
		return res, fmt.Errorf("%w: %w", ErrRecordsIncomplete, err)
	}
	return res, nil
}

func (s *Service) build(ctx context.Context, userID uuid.UUID, req LogRequest) (*models.WorkoutDetail, error) {
	date := models.Day(s.now())
	if req.Date != "" {
		d, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %w", ErrInvalidWorkout, req.Date, err)
		}
		date = d
	}
	if d := req.DurationMinutes; d != nil && *d < 0 {
		return nil, fmt.Errorf("%w: negative duration", ErrInvalidWorkout)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultName
	}

	w := &models.WorkoutDetail{Workout: models.Workout{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            name,
		Date:            date,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Completed:       true,
	}}

	entered := 0
	var ids []uuid.UUID
	for _, ex := range req.Exercises {
		entered += len(ex.Sets)
		sets, err := keepSets(ex.Sets)
		if err != nil {
			return nil, err
		}
		if len(sets) == 0 {
			continue
		}
		we := models.WorkoutExercise{
			ID:         uuid.New(),
			WorkoutID:  w.ID,
			ExerciseID: ex.ExerciseID,
			Order:      len(w.Exercises),
			Notes:      ex.Notes,
			Sets:       sets,
		}
		for i := range we.Sets {
			we.Sets[i].WorkoutExerciseID = we.ID
		}
		w.Exercises = append(w.Exercises, we)
		ids = append(ids, ex.ExerciseID)
	}
	if len(w.Exercises) == 0 {
		return nil, fmt.Errorf("%w: no sets with reps or weight", ErrInvalidWorkout)
	}

	known, err := s.store.GetExercises(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading exercises: %w", err)
	}
	for i := range w.Exercises {
		ex, ok := known[w.Exercises[i].ExerciseID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown exercise %s", ErrInvalidWorkout, w.Exercises[i].ExerciseID)
		}
		w.Exercises[i].ExerciseName = ex.Name
	}

	if w.DurationMinutes == nil {
		w.DurationMinutes = ptr.Ref(EstimateDuration(entered))
	}
	return w, nil
}

// keepSets drops sets without reps or weight, validates the rest, and numbers them from 1.
func keepSets(in []SetInput) ([]models.Set, error) {
	var out []models.Set
	for _, si := range in {
		if si.Reps == nil && si.Weight == nil {
			continue
		}
		if si.Reps != nil && *si.Reps < 0 {
			return nil, fmt.Errorf("%w: negative reps", ErrInvalidWorkout)
		}
		if si.Weight != nil && *si.Weight < 0 {
			return nil, fmt.Errorf("%w: negative weight", ErrInvalidWorkout)
		}
		if si.RPE != nil && (*si.RPE < 1 || *si.RPE > 10) {
			return nil, fmt.Errorf("%w: rpe must be between 1 and 10, got %d", ErrInvalidWorkout, *si.RPE)
		}
		out = append(out, models.Set{
			ID:          uuid.New(),
			SetNumber:   len(out) + 1,
			Reps:        si.Reps,
			Weight:      si.Weight,
			RPE:         si.RPE,
			RestSeconds: si.RestSeconds,
			Completed:   true,
		})
	}
	return out, nil
}

// EstimateDuration guesses a session length from the number of entered sets.
func EstimateDuration(sets int) int {
	return max(sets*minutesPerSet, minEstimateMinutes)
}

func batchFor(w *models.WorkoutDetail) records.Batch {
	b := records.Batch{UserID: w.UserID, WorkoutID: w.ID, Date: w.Date}
	for _, ex := range w.Exercises {
		for _, st := range ex.Sets {
			b.Sets = append(b.Sets, records.Candidate{
				ExerciseID:   ex.ExerciseID,
				ExerciseName: ex.ExerciseName,
				Weight:       st.Weight,
				Reps:         st.Reps,
				Completed:    st.Completed,
			})
		}
	}
	return b
}

// Prefill expands a template into a request with target_sets sets per
// exercise, each carrying the target reps and weight.
func (s *Service) Prefill(ctx context.Context, userID, templateID uuid.UUID) (*LogRequest, error) {
	t, err := s.store.GetTemplate(ctx, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", templateID, err)
	}
	req := &LogRequest{Name: t.Name, Date: models.Day(s.now()).Format(time.DateOnly)}
	for _, te := range t.Exercises {
		ex := ExerciseInput{ExerciseID: te.ExerciseID}
		for range max(te.TargetSets, 1) {
			ex.Sets = append(ex.Sets, SetInput{Reps: te.TargetReps, Weight: te.TargetWeight, RestSeconds: te.RestSeconds})
		}
		req.Exercises = append(req.Exercises, ex)
	}
	return req, nil
}
