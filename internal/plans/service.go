package plans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrPlanAlreadyActive is returned when enrolling while another enrollment is unfinished.
	ErrPlanAlreadyActive = errors.New("another plan is already active")

	// ErrNoActivePlan is returned when the user has no unfinished enrollment.
	ErrNoActivePlan = errors.New("no active plan")
)

// Store is the persistence the plan service needs. Lookups return
// models.ErrNotFound when nothing matches, and GetPlan hides plans owned by
// other users. InsertActivePlan returns models.ErrConflict when the user
// already has an unfinished enrollment; UpdateActivePlan returns it when the
// enrollment no longer sits at from.
type Store interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListSystemPlans(ctx context.Context) ([]models.WorkoutPlan, error)
	GetPlan(ctx context.Context, userID, planID uuid.UUID) (*models.WorkoutPlan, error)
	GetActivePlan(ctx context.Context, userID uuid.UUID) (*models.UserActivePlan, error)
	InsertActivePlan(ctx context.Context, ap models.UserActivePlan) error
	UpdateActivePlan(ctx context.Context, from, to models.UserActivePlan) error
}

// ActivePlan is an enrollment together with its plan and derived progress.
type ActivePlan struct {
	Enrollment      models.UserActivePlan `json:"enrollment"`
	Plan            models.WorkoutPlan    `json:"plan"`
	ProgressPercent int                   `json:"progress_percent"`
	Today           []models.PlanWorkout  `json:"today"`
}

// Service implements plan suggestion, enrollment, and progression.
type Service struct {
	store   Store
	metrics *metrics.Manager
	log     *slog.Logger
}

// NewService creates a plan service.
func NewService(store Store, m *metrics.Manager, log *slog.Logger) *Service {
	return &Service{store: store, metrics: m, log: log}
}

// Suggested ranks the system plan catalog against the user's profile.
// A user without a profile gets every plan with a score of zero.
func (s *Service) Suggested(ctx context.Context, userID uuid.UUID) ([]ScoredPlan, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		profile = &models.Profile{UserID: userID}
	} else if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	catalog, err := s.store.ListSystemPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing system plans: %w", err)
	}
	return Rank(*profile, catalog), nil
}

// Activate enrolls the user in a plan at week 1, day 1 starting today.
func (s *Service) Activate(ctx context.Context, userID, planID uuid.UUID, today time.Time) (*ActivePlan, error) {
	plan, err := s.store.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, fmt.Errorf("loading plan %s: %w", planID, err)
	}
	if err := checkPlan(*plan); err != nil {
		return nil, err
	}

	if _, err := s.store.GetActivePlan(ctx, userID); err == nil {
		return nil, ErrPlanAlreadyActive
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("checking active plan: %w", err)
	}

	ap := models.UserActivePlan{
		ID:          uuid.New(),
		UserID:      userID,
		PlanID:      plan.ID,
		StartDate:   models.Day(today),
		CurrentWeek: 1,
		CurrentDay:  1,
	}
	if err := s.store.InsertActivePlan(ctx, ap); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrPlanAlreadyActive
		}
		return nil, fmt.Errorf("enrolling in plan %s: %w", planID, err)
	}
	s.log.Info("plan activated", "user_id", userID, "plan_id", plan.ID, "plan", plan.Name)
	return view(ap, *plan), nil
}

// Active returns the user's unfinished enrollment, or ErrNoActivePlan.
func (s *Service) Active(ctx context.Context, userID uuid.UUID) (*ActivePlan, error) {
	ap, plan, err := s.loadActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view(*ap, *plan), nil
}

// AdvanceActive marks the current day done and persists the new position.
// Write failures are returned as is; nothing is retried. A concurrent advance
// of the same enrollment makes the later one fail with models.ErrConflict.
func (s *Service) AdvanceActive(ctx context.Context, userID uuid.UUID) (*ActivePlan, error) {
	ap, plan, err := s.loadActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := Advance(*ap, *plan)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateActivePlan(ctx, *ap, next); err != nil {
		return nil, fmt.Errorf("saving plan progress: %w", err)
	}

	s.metrics.CounterPlanAdvances.Inc()
	if next.Completed {
		s.metrics.CounterPlansCompleted.Inc()
		s.log.Info("plan completed", "user_id", userID, "plan_id", plan.ID)
	}
	return view(next, *plan), nil
}

func (s *Service) loadActive(ctx context.Context, userID uuid.UUID) (*models.UserActivePlan, *models.WorkoutPlan, error) {
	ap, err := s.store.GetActivePlan(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, ErrNoActivePlan
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading active plan: %w", err)
	}
	plan, err := s.store.GetPlan(ctx, userID, ap.PlanID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading plan %s: %w", ap.PlanID, err)
	}
	return ap, plan, nil
}

func view(ap models.UserActivePlan, plan models.WorkoutPlan) *ActivePlan {
	return &ActivePlan{
		Enrollment:      ap,
		Plan:            plan,
		ProgressPercent: ProgressPercent(ap, plan),
		Today:           TodaysWorkouts(ap, plan),
	}
}
