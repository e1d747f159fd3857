package alpha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/exercises"
	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/ptr"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/workouts"
	"github.com/google/uuid"
)

// Source labels import logs and metrics written by this package.
const Source = "alpha"

// Store resolves exercise names, detects re-imported sessions and keeps the
// import log.
type Store interface {
	FindExerciseByName(ctx context.Context, userID uuid.UUID, name string) (*models.Exercise, error)
	InsertExercise(ctx context.Context, ex models.Exercise) error
	WorkoutExists(ctx context.Context, userID uuid.UUID, date time.Time, name string) (bool, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

// WorkoutLogger saves one workout and runs record detection on it.
type WorkoutLogger interface {
	Log(ctx context.Context, userID uuid.UUID, req workouts.LogRequest) (*workouts.LogResult, error)
}

// Result summarises one import.
type Result struct {
	SessionsReceived int      `json:"sessions_received"`
	SessionsSkipped  int      `json:"sessions_skipped"`
	WorkoutsInserted int      `json:"workouts_inserted"`
	SetsInserted     int      `json:"sets_inserted"`
	RecordsSet       int      `json:"records_set"`
	CreatedExercises []string `json:"created_exercises,omitempty"`
	Messages         []string `json:"messages,omitempty"`
}

// Importer turns Alpha Progression exports into logged workouts.
type Importer struct {
	store    Store
	workouts WorkoutLogger
	metrics  *metrics.Manager
	log      *slog.Logger
	now      func() time.Time
}

// NewImporter creates an importer.
func NewImporter(store Store, w WorkoutLogger, m *metrics.Manager, log *slog.Logger) *Importer {
	return &Importer{store: store, workouts: w, metrics: m, log: log, now: time.Now}
}

// Import parses an export and logs every session the user does not already
// have, oldest first so personal records are set in the order they happened.
// Warmup sets are not imported. The outcome is written to the import log
// whether or not the import succeeds.
func (im *Importer) Import(ctx context.Context, userID uuid.UUID, r io.Reader) (*Result, error) {
	start := im.now()
	logID, err := im.store.InsertImportLog(ctx, storage.ImportLog{UserID: userID, Source: Source, Status: "running"})
	if err != nil {
		return nil, err
	}

	res, importErr := im.run(ctx, userID, r)

	entry := storage.ImportLog{
		Status:           "success",
		SessionsReceived: res.SessionsReceived,
		WorkoutsInserted: res.WorkoutsInserted,
		SetsInserted:     res.SetsInserted,
		RecordsSet:       res.RecordsSet,
		DurationMs:       ptr.Ref(int(im.now().Sub(start).Milliseconds())),
	}
	if importErr != nil {
		entry.Status = "error"
		entry.ErrorMessage = ptr.Ref(importErr.Error())
	}
	if meta, err := json.Marshal(map[string]any{
		"sessions_skipped":  res.SessionsSkipped,
		"created_exercises": res.CreatedExercises,
	}); err == nil {
		entry.Metadata = ptr.Ref(json.RawMessage(meta))
	}
	// The import itself already happened; a failed log update only loses bookkeeping.
	if err := im.store.UpdateImportLog(ctx, logID, entry); err != nil {
		im.log.ErrorContext(ctx, "updating import log", "import_log_id", logID, "error", err)
	}
	im.metrics.CounterImportedFiles.WithLabelValues(Source, entry.Status).Inc()

	if importErr != nil {
		return res, importErr
	}
	im.log.InfoContext(ctx, "alpha import finished",
		"user_id", userID,
		"sessions", res.SessionsReceived,
		"skipped", res.SessionsSkipped,
		"workouts", res.WorkoutsInserted,
		"records", res.RecordsSet,
	)
	return res, nil
}

func (im *Importer) run(ctx context.Context, userID uuid.UUID, r io.Reader) (*Result, error) {
	res := &Result{}
	sessions, err := Parse(r)
	if err != nil {
		return res, fmt.Errorf("parsing CSV: %w", err)
	}
	res.SessionsReceived = len(sessions)
	slices.SortStableFunc(sessions, func(a, b Session) int { return a.Date.Compare(b.Date) })

	resolved := map[string]uuid.UUID{}
	for _, s := range sessions {
		day := models.Day(s.Date)
		exists, err := im.store.WorkoutExists(ctx, userID, day, s.Name)
		if err != nil {
			return res, err
		}
		if exists {
			res.SessionsSkipped++
			continue
		}

		req := workouts.LogRequest{Name: s.Name, Date: day.Format(time.DateOnly)}
		if mins, ok := s.DurationMinutes(); ok {
			req.DurationMinutes = ptr.Ref(mins)
		}
		for _, ex := range s.Exercises {
			sets := workingSets(ex.Sets)
			if len(sets) == 0 {
				continue
			}
			id, err := im.resolve(ctx, userID, ex, resolved, res)
			if err != nil {
				return res, err
			}
			req.Exercises = append(req.Exercises, workouts.ExerciseInput{ExerciseID: id, Sets: sets})
		}
		if len(req.Exercises) == 0 {
			res.SessionsSkipped++
			continue
		}

		logged, err := im.workouts.Log(ctx, userID, req)
		if err != nil && !errors.Is(err, workouts.ErrRecordsIncomplete) {
			return res, fmt.Errorf("logging session %q on %s: %w", s.Name, req.Date, err)
		}
		res.WorkoutsInserted++
		for _, we := range logged.Workout.Exercises {
			res.SetsInserted += len(we.Sets)
		}
		res.RecordsSet += len(logged.NewRecords)
		res.Messages = append(res.Messages, logged.Messages...)
	}
	return res, nil
}

// resolve maps an exported exercise to a library exercise by name, creating a
// custom exercise the first time an unknown name is seen.
func (im *Importer) resolve(ctx context.Context, userID uuid.UUID, ex Exercise, seen map[string]uuid.UUID, res *Result) (uuid.UUID, error) {
	key := strings.ToLower(ex.Name)
	if id, ok := seen[key]; ok {
		return id, nil
	}

	found, err := im.store.FindExerciseByName(ctx, userID, ex.Name)
	switch {
	case err == nil:
		seen[key] = found.ID
		return found.ID, nil
	case !errors.Is(err, models.ErrNotFound):
		return uuid.Nil, err
	}

	custom, err := exercises.NewCustom(userID, models.Exercise{
		Name:           ex.Name,
		Description:    "Imported from Alpha Progression",
		Category:       "Strength",
		Difficulty:     models.Intermediate,
		MusclesPrimary: []string{"Full Body"},
		Equipment:      []string{ex.Equipment},
	})
	if err != nil {
		return uuid.Nil, err
	}
	if err := im.store.InsertExercise(ctx, custom); err != nil {
		return uuid.Nil, fmt.Errorf("creating exercise %q: %w", ex.Name, err)
	}
	im.log.InfoContext(ctx, "created exercise from import", "user_id", userID, "exercise", custom.Name)
	res.CreatedExercises = append(res.CreatedExercises, custom.Name)
	seen[key] = custom.ID
	return custom.ID, nil
}

// workingSets converts the non-warmup sets. Reps in reserve become
// RPE = 10 - RIR. Bodyweight sets without added load carry no weight.
func workingSets(in []Set) []workouts.SetInput {
	var out []workouts.SetInput
	for _, st := range in {
		if st.IsWarmup {
			continue
		}
		si := workouts.SetInput{Reps: ptr.Ref(st.Reps)}
		if !st.IsBodyweightPlus || st.WeightKg > 0 {
			si.Weight = ptr.Ref(st.WeightKg)
		}
		if st.RIR >= 0 && st.RIR <= 9 {
			si.RPE = ptr.Ref(int(math.Round(10 - st.RIR)))
		}
		out = append(out, si)
	}
	return out
}
