package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWeeklyGoal = 3
	recentLimit       = 5
)

// Store is the read side of the workout history.
type Store interface {
	WorkoutDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
	AllWorkouts(ctx context.Context, userID uuid.UUID) ([]models.Workout, error)
	RecentWorkouts(ctx context.Context, userID uuid.UUID, limit int) ([]models.Workout, error)
	RecentRecords(ctx context.Context, userID uuid.UUID, limit int) ([]models.PersonalRecord, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	// MuscleHits returns one primary muscle group per logged exercise and group.
	MuscleHits(ctx context.Context, userID uuid.UUID) ([]string, error)
	TotalVolume(ctx context.Context, userID uuid.UUID) (float64, error)
}

// ActivePlans looks up a user's current enrollment.
type ActivePlans interface {
	Active(ctx context.Context, userID uuid.UUID) (*plans.ActivePlan, error)
}

// Dashboard is the landing view.
type Dashboard struct {
	Summary
	WeeklyGoal     int                     `json:"weekly_goal"`
	RecentWorkouts []models.Workout        `json:"recent_workouts"`
	RecentRecords  []models.PersonalRecord `json:"recent_records"`
	ActivePlan     *plans.ActivePlan       `json:"active_plan"`
}

// Service assembles dashboards and statistics.
type Service struct {
	store Store
	plans ActivePlans
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a progress service.
func NewService(store Store, ap ActivePlans, log *slog.Logger) *Service {
	return &Service{store: store, plans: ap, log: log, now: time.Now}
}

// Dashboard loads the pieces of the dashboard concurrently.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	var (
		d       Dashboard
		dates   []time.Time
		profile *models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if dates, err = s.store.WorkoutDates(gctx, userID); err != nil {
			return fmt.Errorf("loading workout dates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if d.RecentWorkouts, err = s.store.RecentWorkouts(gctx, userID, recentLimit); err != nil {
			return fmt.Errorf("loading recent workouts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if d.RecentRecords, err = s.store.RecentRecords(gctx, userID, recentLimit); err != nil {
			return fmt.Errorf("loading recent records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		profile, err = s.store.GetProfile(gctx, userID)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		d.ActivePlan, err = s.plans.Active(gctx, userID)
		if errors.Is(err, plans.ErrNoActivePlan) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Summary = Summarize(dates, s.now())
	d.WeeklyGoal = defaultWeeklyGoal
	if profile != nil && profile.TrainingFrequency != nil {
		d.WeeklyGoal = *profile.TrainingFrequency
	}
	if d.RecentWorkouts == nil {
		d.RecentWorkouts = []models.Workout{}
	}
	if d.RecentRecords == nil {
		d.RecentRecords = []models.PersonalRecord{}
	}
	return &d, nil
}

// Statistics aggregates the user's full history.
func (s *Service) Statistics(ctx context.Context, userID uuid.UUID) (*Statistics, error) {
	var in StatsInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if in.Workouts, err = s.store.AllWorkouts(gctx, userID); err != nil {
			return fmt.Errorf("loading workouts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if in.MuscleHits, err = s.store.MuscleHits(gctx, userID); err != nil {
			return fmt.Errorf("loading muscle groups: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if in.Volume, err = s.store.TotalVolume(gctx, userID); err != nil {
			return fmt.Errorf("loading volume: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := ComputeStatistics(in, s.now())
	return &st, nil
}
