package mcp

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitTrack training log. Query workouts, personal records, training statistics, plans and body measurements. All data is scoped to the authenticated user."),
	)

	// The REST API resolves the caller from the connection, so a remote data
	// source needs no user id in the context.
	_, remote := ds.(*HTTPClient)
	h := &handlers{ds: ds, remote: remote, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
		server.ServerTool{Tool: toolGetStatistics, Handler: h.getStatistics},
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolSearchExercises, Handler: h.searchExercises},
		server.ServerTool{Tool: toolGetSuggestedPlans, Handler: h.getSuggestedPlans},
		server.ServerTool{Tool: toolGetActivePlan, Handler: h.getActivePlan},
		server.ServerTool{Tool: toolGetBodyMetrics, Handler: h.getBodyMetrics},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboard},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds     DataSource
	remote bool
	log    *slog.Logger
}

// caller returns the user the request runs as.
func (h *handlers) caller(ctx context.Context) (uuid.UUID, bool) {
	if id, ok := UserIDFromContext(ctx); ok {
		return id, true
	}
	return uuid.Nil, h.remote
}

// --- Resource definitions ---

var resDashboard = mcp.NewResource(
	"fittrack://dashboard",
	"Dashboard",
	mcp.WithResourceDescription("Current streak, workouts this week against the weekly goal, recent workouts and records, and the active plan"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"fittrack://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"fittrack://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises visible to the user, including their custom exercises"),
	mcp.WithMIMEType("application/json"),
)
