package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claude/fittrack/internal/exercises"
	"github.com/claude/fittrack/internal/livesession"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/claude/fittrack/internal/progress"
	"github.com/claude/fittrack/internal/workouts"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// errBadRequest marks request decoding and parameter errors.
var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, workouts.ErrInvalidWorkout),
		errors.Is(err, workouts.ErrInvalidTemplate),
		errors.Is(err, exercises.ErrInvalidExercise),
		errors.Is(err, progress.ErrInvalidBodyMetric),
		errors.Is(err, livesession.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, plans.ErrNoActivePlan),
		errors.Is(err, livesession.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, plans.ErrPlanAlreadyActive),
		errors.Is(err, plans.ErrPlanCompleted),
		errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code and writes {"error": "..."}.
// Server errors are logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", errBadRequest, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// parseTimeRange reads start and end as RFC 3339 or YYYY-MM-DD. A date-only
// end includes that whole day. Without start the range is the last days days.
func parseTimeRange(r *http.Request, now time.Time, days int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = now
	if endStr != "" {
		if end, err = time.Parse(time.RFC3339, endStr); err != nil {
			if end, err = time.Parse(time.DateOnly, endStr); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %w", errBadRequest, err)
			}
			end = end.AddDate(0, 0, 1)
		}
	}

	if startStr == "" {
		return end.AddDate(0, 0, -days), end, nil
	}
	if start, err = time.Parse(time.RFC3339, startStr); err != nil {
		if start, err = time.Parse(time.DateOnly, startStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %w", errBadRequest, err)
		}
	}
	return start, end, nil
}
