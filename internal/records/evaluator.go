// Package records detects new personal records in logged sets.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxParallelExercises bounds how many exercises are evaluated at once.
const maxParallelExercises = 4

// Store persists personal records.
type Store interface {
	// RaiseRecord writes rec when no record exists for its (user, exercise,
	// record type) key or when rec.Value is strictly greater than the stored
	// value, as one atomic statement. It reports whether a write happened and
	// the id of the stored row, which keeps its id when replaced.
	RaiseRecord(ctx context.Context, rec models.PersonalRecord) (uuid.UUID, bool, error)
}

// Candidate is a persisted set considered for a record.
type Candidate struct {
	ExerciseID   uuid.UUID
	ExerciseName string
	Weight       *float64
	Reps         *int
	Completed    bool
}

// Batch is every set saved with one workout.
type Batch struct {
	UserID    uuid.UUID
	WorkoutID uuid.UUID
	Date      time.Time
	Sets      []Candidate
}

// Evaluator checks a saved workout's sets against the user's max_weight records.
type Evaluator struct {
	store   Store
	metrics *metrics.Manager
	log     *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(store Store, m *metrics.Manager, log *slog.Logger) *Evaluator {
	return &Evaluator{store: store, metrics: m, log: log}
}

// Evaluate raises the max_weight record for every completed, weighted set
// that beats the stored best and returns one record per write, in set order.
//
// Sets of the same exercise are applied in order, so a heavier later set
// supersedes an earlier one from the same workout. Different exercises are
// evaluated concurrently. After the first failed write no further writes are
// started; the records written so far are returned with the error.
func (e *Evaluator) Evaluate(ctx context.Context, b Batch) ([]models.PersonalRecord, error) {
	groups := groupByExercise(b.Sets)
	results := make([][]models.PersonalRecord, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelExercises)
	for i, sets := range groups {
		g.Go(func() error {
			for _, c := range sets {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec := models.PersonalRecord{
					ID:           uuid.New(),
					UserID:       b.UserID,
					ExerciseID:   c.ExerciseID,
					ExerciseName: c.ExerciseName,
					RecordType:   models.MaxWeight,
					Value:        *c.Weight,
					Date:         models.Day(b.Date),
					WorkoutID:    &b.WorkoutID,
				}
				id, raised, err := e.store.RaiseRecord(gctx, rec)
				if err != nil {
					return fmt.Errorf("raising %s record for exercise %s: %w", rec.RecordType, c.ExerciseID, err)
				}
				if raised {
					rec.ID = id
					results[i] = append(results[i], rec)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	var out []models.PersonalRecord
	for _, recs := range results {
		for _, rec := range recs {
			e.notify(ctx, rec)
			out = append(out, rec)
		}
	}
	return out, err
}

func (e *Evaluator) notify(ctx context.Context, rec models.PersonalRecord) {
	e.metrics.CounterPersonalRecords.WithLabelValues(string(rec.RecordType)).Inc()
	e.log.InfoContext(ctx, "new personal record",
		"user_id", rec.UserID,
		"exercise", rec.ExerciseName,
		"record_type", rec.RecordType,
		"value", rec.Value,
	)
}

// groupByExercise keeps eligible sets, grouped by exercise in first-seen order.
func groupByExercise(sets []Candidate) [][]Candidate {
	index := map[uuid.UUID]int{}
	var groups [][]Candidate
	for _, c := range sets {
		if !c.Completed || c.Weight == nil || *c.Weight <= 0 {
			continue
		}
		i, ok := index[c.ExerciseID]
		if !ok {
			i = len(groups)
			index[c.ExerciseID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}
	return groups
}

// Message is the user-facing announcement for a new record.
func Message(rec models.PersonalRecord) string {
	switch rec.RecordType {
	case models.MaxWeight:
		return fmt.Sprintf("New PR! %s: %g kg", rec.ExerciseName, rec.Value)
	default:
		return fmt.Sprintf("New PR! %s: %g", rec.ExerciseName, rec.Value)
	}
}
