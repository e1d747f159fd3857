package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/fittrack/internal/ingest/alpha"
	"github.com/claude/fittrack/internal/livesession"
	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/claude/fittrack/internal/progress"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/workouts"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store is the part of the repository the handlers read and write directly.
// Both *storage.DB and *memstore.Store satisfy it.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (*models.User, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p models.Profile) (*models.Profile, error)

	ListExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error)
	GetExercise(ctx context.Context, userID, id uuid.UUID) (*models.Exercise, error)
	InsertExercise(ctx context.Context, ex models.Exercise) error

	ListWorkouts(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (*models.WorkoutDetail, error)
	DeleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) error

	ListRecords(ctx context.Context, userID uuid.UUID, exerciseID *uuid.UUID) ([]models.PersonalRecord, error)

	InsertBodyMetric(ctx context.Context, m models.BodyMetric) error
	ListBodyMetrics(ctx context.Context, userID uuid.UUID) ([]models.BodyMetric, error)

	ListTemplates(ctx context.Context, userID uuid.UUID) ([]models.WorkoutTemplate, error)
	GetTemplate(ctx context.Context, userID, templateID uuid.UUID) (*models.WorkoutTemplate, error)
	InsertTemplate(ctx context.Context, t *models.WorkoutTemplate) error

	ListSystemPlans(ctx context.Context) ([]models.WorkoutPlan, error)
	GetPlan(ctx context.Context, userID, planID uuid.UUID) (*models.WorkoutPlan, error)

	QueryImportLogs(ctx context.Context, userID uuid.UUID, limit int) ([]storage.ImportLog, error)
}

// Services bundles the domain services behind the API.
type Services struct {
	Workouts *workouts.Service
	Plans    *plans.Service
	Progress *progress.Service
	Sessions *livesession.Manager
	Importer *alpha.Importer
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   Store
	svc     Services
	metrics *metrics.Manager
	log     *slog.Logger
	apiKey  string
	now     func() time.Time

	// identity sources; see identity.go
	whois   whoIser
	devUser string

	router chi.Router
	api    chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, svc Services, m *metrics.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:   store,
		svc:     svc,
		metrics: m,
		log:     log,
		apiKey:  apiKey,
		now:     time.Now,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches h under pattern behind the identity middleware, so the
// caller's user id is available from the request context via UserID.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.api.Mount(pattern, h)
}

// MountPublic attaches h under pattern without identity resolution.
func (s *Server) MountPublic(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)
		s.api = r

		r.Get("/api/v1/me", s.handleMe)

		r.Get("/api/v1/profile", s.handleGetProfile)
		r.Put("/api/v1/profile", s.handlePutProfile)

		r.Get("/api/v1/dashboard", s.handleDashboard)
		r.Get("/api/v1/statistics", s.handleStatistics)

		r.Get("/api/v1/exercises", s.handleListExercises)
		r.Post("/api/v1/exercises", s.handleCreateExercise)
		r.Get("/api/v1/exercises/{id}", s.handleGetExercise)

		r.Get("/api/v1/workouts", s.handleListWorkouts)
		r.Post("/api/v1/workouts", s.handleLogWorkout)
		r.Get("/api/v1/workouts/{id}", s.handleGetWorkout)
		r.Delete("/api/v1/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/api/v1/templates", s.handleListTemplates)
		r.Post("/api/v1/templates", s.handleCreateTemplate)
		r.Get("/api/v1/templates/{id}", s.handleGetTemplate)
		r.Get("/api/v1/templates/{id}/prefill", s.handlePrefillTemplate)

		r.Get("/api/v1/plans", s.handleListPlans)
		r.Get("/api/v1/plans/suggested", s.handleSuggestedPlans)
		r.Get("/api/v1/plans/active", s.handleActivePlan)
		r.Post("/api/v1/plans/active/advance", s.handleAdvancePlan)
		r.Get("/api/v1/plans/{id}", s.handleGetPlan)
		r.Post("/api/v1/plans/{id}/activate", s.handleActivatePlan)

		r.Get("/api/v1/records", s.handleListRecords)

		r.Get("/api/v1/body-metrics", s.handleListBodyMetrics)
		r.Post("/api/v1/body-metrics", s.handleCreateBodyMetric)

		r.Route("/api/v1/sessions", s.sessionRoutes)

		r.Get("/api/v1/import-logs", s.handleImportLogs)
		r.With(APIKeyAuth(s.apiKey)).Post("/api/v1/import/alpha", s.handleAlphaImport)
	})
}
