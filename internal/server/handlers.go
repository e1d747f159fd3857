package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/claude/fittrack/internal/exercises"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/progress"
	"github.com/claude/fittrack/internal/workouts"
	"github.com/google/uuid"
)

const defaultWorkoutRangeDays = 30

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProfile(r.Context(), uid)
	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusOK, models.Profile{UserID: uid, Goals: []string{}, Equipment: []string{}})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var p models.Profile
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	p.UserID = uid
	if err := p.Validate(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	saved, err := s.store.UpsertProfile(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Progress.Dashboard(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	st, err := s.svc.Progress.Statistics(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListExercises(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := exercises.Filter{Category: q.Get("category"), Muscle: q.Get("muscle"), Query: q.Get("q")}
	writeJSON(w, http.StatusOK, f.Apply(list))
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ex, err := s.store.GetExercise(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var in models.Exercise
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ex, err := exercises.NewCustom(uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.InsertExercise(r.Context(), ex); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r, s.now(), defaultWorkoutRangeDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.store.ListWorkouts(r.Context(), uid, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Workout{}
	}
	writeJSON(w, http.StatusOK, list)
}

// logResponse is a saved workout. Warning is set when record detection did
// not finish; the workout itself was saved.
type logResponse struct {
	*workouts.LogResult
	Warning string `json:"warning,omitempty"`
}

func (s *Server) handleLogWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req workouts.LogRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondLogged(w, r, uid, req)
}

// respondLogged saves req and writes 201 with the result. It reports whether
// the workout was saved.
func (s *Server) respondLogged(w http.ResponseWriter, r *http.Request, uid uuid.UUID, req workouts.LogRequest) bool {
	res, err := s.svc.Workouts.Log(r.Context(), uid, req)
	switch {
	case errors.Is(err, workouts.ErrRecordsIncomplete):
		writeJSON(w, http.StatusCreated, logResponse{LogResult: res, Warning: err.Error()})
	case err != nil:
		s.writeError(w, r, err)
		return false
	default:
		writeJSON(w, http.StatusCreated, logResponse{LogResult: res})
	}
	return true
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detail, err := s.store.GetWorkout(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteWorkout(r.Context(), uid, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var exerciseID *uuid.UUID
	if v := r.URL.Query().Get("exercise_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: invalid exercise_id", errBadRequest))
			return
		}
		exerciseID = &id
	}
	recs, err := s.store.ListRecords(r.Context(), uid, exerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleListBodyMetrics(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListBodyMetrics(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.BodyMetric{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateBodyMetric(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req progress.BodyMetricRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := progress.NewBodyMetric(uid, req, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.InsertBodyMetric(r.Context(), *m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), uid, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	res, err := s.svc.Importer.Import(r.Context(), uid, r.Body)
	if err != nil {
		s.log.ErrorContext(r.Context(), "alpha import error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "result": res})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
