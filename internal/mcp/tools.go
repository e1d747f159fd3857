package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/exercises"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last days days.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Current training streak in days, workouts this week against the weekly goal, the latest workouts and personal records, and the active plan."),
)

var toolGetStatistics = mcp.NewTool("get_statistics",
	mcp.WithDescription("All-time training statistics: total workouts, average duration, workouts per week, total volume, workouts per weekday and the most trained muscle groups."),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List logged workouts in a date range, newest first. Returns name, date, duration and notes for each workout."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("name", mcp.Description("Filter by workout name (partial match, e.g. 'push')")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout with its exercises and every set (reps, weight, RPE)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Personal records (heaviest weight per exercise), optionally for one exercise."),
	mcp.WithString("exercise_id", mcp.Description("Exercise ID to restrict the records to")),
)

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise library, including custom exercises. Filters combine."),
	mcp.WithString("query", mcp.Description("Name substring, case-insensitive")),
	mcp.WithString("category", mcp.Description("Exercise category"), mcp.Enum(models.ExerciseCategories...)),
	mcp.WithString("muscle", mcp.Description("Primary or secondary muscle group (e.g. 'Chest')")),
)

var toolGetSuggestedPlans = mcp.NewTool("get_suggested_plans",
	mcp.WithDescription("Training plans ranked by fit with the user's profile (fitness level, goals, equipment, training frequency), best first, with their scores."),
)

var toolGetActivePlan = mcp.NewTool("get_active_plan",
	mcp.WithDescription("The plan the user is enrolled in: current week and day, percent complete, and today's scheduled workouts."),
)

var toolGetBodyMetrics = mcp.NewTool("get_body_metrics",
	mcp.WithDescription("Body measurements over time (weight, chest, waist, hips, arms, legs), newest first."),
)

// --- Tool handlers ---

func noIdentity() *mcp.CallToolResult {
	return mcp.NewToolResultError("no authenticated user")
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func (h *handlers) getDashboard(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	d, err := h.ds.Dashboard(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(d), nil
}

func (h *handlers) getStatistics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	st, err := h.ds.Statistics(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_statistics", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(st), nil
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	list, err := h.ds.ListWorkouts(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := []models.Workout{}
	name := strings.ToLower(req.GetString("name", ""))
	for _, w := range list {
		if name == "" || strings.Contains(strings.ToLower(w.Name), name) {
			out = append(out, w)
		}
	}
	return jsonResult(out), nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid workout id"), nil
	}

	w, err := h.ds.GetWorkout(ctx, uid, id)
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultError("workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(w), nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	var exerciseID *uuid.UUID
	if raw := req.GetString("exercise_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError("invalid exercise id"), nil
		}
		exerciseID = &id
	}

	recs, err := h.ds.ListRecords(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(recs), nil
}

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	list, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		h.log.Error("mcp search_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	f := exercises.Filter{
		Category: req.GetString("category", ""),
		Muscle:   req.GetString("muscle", ""),
		Query:    req.GetString("query", ""),
	}
	out := f.Apply(list)
	if out == nil {
		out = []models.Exercise{}
	}
	return jsonResult(out), nil
}

func (h *handlers) getSuggestedPlans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	ranked, err := h.ds.SuggestedPlans(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_suggested_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(ranked), nil
}

func (h *handlers) getActivePlan(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	ap, err := h.ds.ActivePlan(ctx, uid)
	if errors.Is(err, plans.ErrNoActivePlan) {
		return mcp.NewToolResultText("The user is not enrolled in a plan."), nil
	}
	if err != nil {
		h.log.Error("mcp get_active_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(ap), nil
}

func (h *handlers) getBodyMetrics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return noIdentity(), nil
	}
	list, err := h.ds.ListBodyMetrics(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_body_metrics", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list), nil
}
