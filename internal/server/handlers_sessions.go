package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/fittrack/internal/livesession"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) sessionRoutes(r chi.Router) {
	r.Get("/", s.handleListSessions)
	r.Post("/", s.handleStartSession)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.withSession(s.handleGetSession))
		r.Put("/", s.withSession(s.handleRenameSession))
		r.Delete("/", s.handleDiscardSession)
		r.Get("/events", s.withSession(s.handleSessionEvents))
		r.Post("/pause", s.withSession(s.handlePauseSession))
		r.Post("/resume", s.withSession(s.handleResumeSession))
		r.Post("/rest", s.withSession(s.handleStartRest))
		r.Delete("/rest", s.withSession(s.handleSkipRest))
		r.Post("/finish", s.withSession(s.handleFinishSession))
		r.Post("/exercises", s.withSession(s.handleAddSessionExercise))
		r.Delete("/exercises/{idx}", s.withSession(s.handleRemoveSessionExercise))
		r.Post("/exercises/{idx}/sets", s.withSession(s.handleAddSessionSet))
		r.Put("/exercises/{idx}/sets/{set}", s.withSession(s.handleUpdateSessionSet))
		r.Post("/exercises/{idx}/sets/{set}/toggle", s.withSession(s.handleToggleSessionSet))
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *livesession.Session)

// withSession loads the caller's session named by the {id} parameter.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := mustUserID(w, r)
		if !ok {
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		sess, err := s.svc.Sessions.Get(uid, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		h(w, r, sess)
	}
}

func pathIndex(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return n, nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Sessions.List(uid))
}

type startSessionRequest struct {
	Name       string     `json:"name"`
	TemplateID *uuid.UUID `json:"template_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var exercises []livesession.ExerciseState
	if req.TemplateID != nil {
		pre, err := s.svc.Workouts.Prefill(r.Context(), uid, *req.TemplateID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if req.Name == "" {
			req.Name = pre.Name
		}
		for _, ex := range pre.Exercises {
			st := livesession.ExerciseState{ExerciseID: ex.ExerciseID}
			for _, set := range ex.Sets {
				st.Sets = append(st.Sets, livesession.SetState{Reps: set.Reps, Weight: set.Weight})
			}
			exercises = append(exercises, st)
		}
	}

	sess := s.svc.Sessions.Start(uid, req.Name, exercises)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.SetName(req.Name)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Sessions.Discard(uid, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	sess.Pause()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	sess.Resume()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleStartRest(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.StartRest(time.Duration(req.Seconds) * time.Second); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	sess.SkipRest()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleFinishSession logs the session as a workout and discards it. The
// session is claimed for the duration of the save so a repeated finish cannot
// log it twice. A session whose workout is rejected stays open so the user
// can fix it.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	uid, _ := UserID(r.Context())
	sess, err := s.svc.Sessions.Take(uid, sess.ID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := sess.LogRequest()
	if err != nil {
		s.svc.Sessions.Return(sess)
		s.writeError(w, r, err)
		return
	}
	if !s.respondLogged(w, r, uid, req) {
		s.svc.Sessions.Return(sess)
		return
	}
	s.svc.Sessions.End(sess)
}

func (s *Server) handleAddSessionExercise(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	uid, _ := UserID(r.Context())
	var req struct {
		ExerciseID uuid.UUID `json:"exercise_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.store.GetExercise(r.Context(), uid, req.ExerciseID); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.AddExercise(req.ExerciseID)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleRemoveSessionExercise(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	i, err := pathIndex(r, "idx")
	if err == nil {
		err = sess.RemoveExercise(i)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleAddSessionSet(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	i, err := pathIndex(r, "idx")
	if err == nil {
		err = sess.AddSet(i)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleUpdateSessionSet(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	i, err := pathIndex(r, "idx")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	j, err := pathIndex(r, "set")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var st livesession.SetState
	if err := decodeJSON(r, &st); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.UpdateSet(i, j, st); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleToggleSessionSet(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	i, err := pathIndex(r, "idx")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	j, err := pathIndex(r, "set")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.ToggleSet(i, j); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSessionEvents streams session events as server-sent events, starting
// with the current snapshot. The stream ends when the session does.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request, sess *livesession.Session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, stop := sess.Subscribe()
	defer stop()

	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", mustJSON(sess.Snapshot()))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, mustJSON(ev))
			flusher.Flush()
		}
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{}`
	}
	return string(b)
}
