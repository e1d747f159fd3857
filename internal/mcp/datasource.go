package mcp

import (
	"context"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/claude/fittrack/internal/progress"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process) and
// HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*progress.Dashboard, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*progress.Statistics, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (*models.WorkoutDetail, error)
	ListRecords(ctx context.Context, userID uuid.UUID, exerciseID *uuid.UUID) ([]models.PersonalRecord, error)
	ListExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error)
	SuggestedPlans(ctx context.Context, userID uuid.UUID) ([]plans.ScoredPlan, error)
	// ActivePlan returns plans.ErrNoActivePlan when the user is not enrolled.
	ActivePlan(ctx context.Context, userID uuid.UUID) (*plans.ActivePlan, error)
	ListBodyMetrics(ctx context.Context, userID uuid.UUID) ([]models.BodyMetric, error)
}

// LocalStore is the part of the repository Local reads directly.
type LocalStore interface {
	ListWorkouts(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (*models.WorkoutDetail, error)
	ListRecords(ctx context.Context, userID uuid.UUID, exerciseID *uuid.UUID) ([]models.PersonalRecord, error)
	ListExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error)
	ListBodyMetrics(ctx context.Context, userID uuid.UUID) ([]models.BodyMetric, error)
}

// Local serves MCP tools in-process from the repository and services.
type Local struct {
	LocalStore
	plans    *plans.Service
	progress *progress.Service
}

// Compile-time check: *Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal creates a Local data source.
func NewLocal(store LocalStore, p *plans.Service, pr *progress.Service) *Local {
	return &Local{LocalStore: store, plans: p, progress: pr}
}

func (l *Local) Dashboard(ctx context.Context, userID uuid.UUID) (*progress.Dashboard, error) {
	return l.progress.Dashboard(ctx, userID)
}

func (l *Local) Statistics(ctx context.Context, userID uuid.UUID) (*progress.Statistics, error) {
	return l.progress.Statistics(ctx, userID)
}

func (l *Local) SuggestedPlans(ctx context.Context, userID uuid.UUID) ([]plans.ScoredPlan, error) {
	return l.plans.Suggested(ctx, userID)
}

func (l *Local) ActivePlan(ctx context.Context, userID uuid.UUID) (*plans.ActivePlan, error) {
	return l.plans.Active(ctx, userID)
}
