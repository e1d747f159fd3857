package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/claude/fittrack/internal/progress"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the FitTrack REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// resolves the caller from the connection, so user ids are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON body into out. A 404 is reported as
// models.ErrNotFound.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, models.ErrNotFound)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) Dashboard(ctx context.Context, _ uuid.UUID) (*progress.Dashboard, error) {
	var d progress.Dashboard
	if err := c.get(ctx, "/api/v1/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *HTTPClient) Statistics(ctx context.Context, _ uuid.UUID) (*progress.Statistics, error) {
	var st progress.Statistics
	if err := c.get(ctx, "/api/v1/statistics", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, _ uuid.UUID, start, end time.Time) ([]models.Workout, error) {
	var list []models.Workout
	if err := c.get(ctx, "/api/v1/workouts", timeParams(start, end), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, _, workoutID uuid.UUID) (*models.WorkoutDetail, error) {
	var w models.WorkoutDetail
	if err := c.get(ctx, "/api/v1/workouts/"+workoutID.String(), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) ListRecords(ctx context.Context, _ uuid.UUID, exerciseID *uuid.UUID) ([]models.PersonalRecord, error) {
	params := url.Values{}
	if exerciseID != nil {
		params.Set("exercise_id", exerciseID.String())
	}
	var recs []models.PersonalRecord
	if err := c.get(ctx, "/api/v1/records", params, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, _ uuid.UUID) ([]models.Exercise, error) {
	var list []models.Exercise
	if err := c.get(ctx, "/api/v1/exercises", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) SuggestedPlans(ctx context.Context, _ uuid.UUID) ([]plans.ScoredPlan, error) {
	var ranked []plans.ScoredPlan
	if err := c.get(ctx, "/api/v1/plans/suggested", nil, &ranked); err != nil {
		return nil, err
	}
	return ranked, nil
}

// ActivePlan maps the API's 404 to plans.ErrNoActivePlan.
func (c *HTTPClient) ActivePlan(ctx context.Context, _ uuid.UUID) (*plans.ActivePlan, error) {
	var ap plans.ActivePlan
	err := c.get(ctx, "/api/v1/plans/active", nil, &ap)
	if errors.Is(err, models.ErrNotFound) {
		return nil, plans.ErrNoActivePlan
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

func (c *HTTPClient) ListBodyMetrics(ctx context.Context, _ uuid.UUID) ([]models.BodyMetric, error) {
	var list []models.BodyMetric
	if err := c.get(ctx, "/api/v1/body-metrics", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
