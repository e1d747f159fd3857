package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/fittrack/internal/ingest/alpha"
	"github.com/claude/fittrack/internal/livesession"
	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/plans"
	"github.com/claude/fittrack/internal/progress"
	"github.com/claude/fittrack/internal/records"
	"github.com/claude/fittrack/internal/storage/memstore"
	"github.com/claude/fittrack/internal/testhelpers"
	"github.com/claude/fittrack/internal/workouts"
	"github.com/google/uuid"
)

const (
	benchID     = "10000000-0000-0000-0000-000000000001"
	pushUpID    = "10000000-0000-0000-0000-000000000007"
	basicsPlan  = "30000000-0000-0000-0000-000000000001"
	barbellPlan = "30000000-0000-0000-0000-000000000002"
	testAPIKey  = "secret"
)

// newTestServer wires the real services over a seeded in-memory store with
// the dev identity "local".
func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := testhelpers.NewLogger(t)
	m := metrics.NewTestManager()

	store := memstore.New()
	store.SeedCatalog()

	ws := workouts.NewService(store, records.NewEvaluator(store, m, log), m, log)
	ps := plans.NewService(store, m, log)
	svc := Services{
		Workouts: ws,
		Plans:    ps,
		Progress: progress.NewService(store, ps, log),
		Sessions: livesession.NewManager(m, log),
		Importer: alpha.NewImporter(store, ws, m, log),
	}
	s := New(store, svc, m, testAPIKey, log)
	s.SetDevUser("local")
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %T: %v", v, err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// TestHandleMe verifies /api/v1/me reports the resolved dev identity.
func TestHandleMe(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/me", "")
	wantStatus(t, rec, http.StatusOK)

	info := decode[UserInfo](t, rec)
	if info.Login != "local" {
		t.Errorf("login = %q, want local", info.Login)
	}
}

// TestLogWorkoutFlow logs a workout and checks it shows up in the list,
// detail, records and dashboard views.
func TestLogWorkoutFlow(t *testing.T) {
	s := newTestServer(t)
	body := fmt.Sprintf(`{"name":"Push Day","exercises":[{"exercise_id":%q,"sets":[
		{"reps":5,"weight":100},
		{"reps":3,"weight":105},
		{}
	]}]}`, benchID)

	rec := do(t, s, http.MethodPost, "/api/v1/workouts", body)
	wantStatus(t, rec, http.StatusCreated)
	logged := decode[logResponse](t, rec)
	if logged.Warning != "" {
		t.Errorf("warning = %q", logged.Warning)
	}
	if got := len(logged.Workout.Exercises); got != 1 {
		t.Fatalf("exercises = %d, want 1", got)
	}
	if got := len(logged.Workout.Exercises[0].Sets); got != 2 {
		t.Errorf("sets = %d, want 2 (empty set dropped)", got)
	}
	if got := len(logged.NewRecords); got != 2 {
		t.Errorf("new records = %d, want 2", got)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/workouts", "")
	wantStatus(t, rec, http.StatusOK)
	if list := decode[[]models.Workout](t, rec); len(list) != 1 || list[0].Name != "Push Day" {
		t.Errorf("workouts = %+v", list)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/workouts/"+logged.Workout.ID.String(), "")
	wantStatus(t, rec, http.StatusOK)
	if detail := decode[models.WorkoutDetail](t, rec); detail.Exercises[0].ExerciseName != "Barbell Bench Press" {
		t.Errorf("exercise name = %q", detail.Exercises[0].ExerciseName)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/records?exercise_id="+benchID, "")
	wantStatus(t, rec, http.StatusOK)
	recs := decode[[]models.PersonalRecord](t, rec)
	if len(recs) != 1 || recs[0].Value != 105 {
		t.Errorf("records = %+v, want one at 105", recs)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/dashboard", "")
	wantStatus(t, rec, http.StatusOK)
	d := decode[progress.Dashboard](t, rec)
	if d.Streak != 1 || d.WeeklyCount != 1 {
		t.Errorf("summary = %+v, want streak 1 and weekly count 1", d.Summary)
	}
	if d.ActivePlan != nil {
		t.Errorf("active plan = %+v, want nil", d.ActivePlan)
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/workouts/"+logged.Workout.ID.String(), "")
	wantStatus(t, rec, http.StatusNoContent)
	rec = do(t, s, http.MethodGet, "/api/v1/workouts/"+logged.Workout.ID.String(), "")
	wantStatus(t, rec, http.StatusNotFound)
}

// TestLogWorkoutRejected verifies validation failures map to 400.
func TestLogWorkoutRejected(t *testing.T) {
	tests := map[string]string{
		"no sets":          fmt.Sprintf(`{"name":"x","exercises":[{"exercise_id":%q,"sets":[{}]}]}`, benchID),
		"bad date":         fmt.Sprintf(`{"date":"19/02/2026","exercises":[{"exercise_id":%q,"sets":[{"reps":5}]}]}`, benchID),
		"unknown exercise": `{"exercises":[{"exercise_id":"90000000-0000-0000-0000-000000000001","sets":[{"reps":5}]}]}`,
		"malformed json":   `{"exercises":`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t)
			wantStatus(t, do(t, s, http.MethodPost, "/api/v1/workouts", body), http.StatusBadRequest)
		})
	}
}

// TestProfile verifies the empty default and that invalid profiles are rejected.
func TestProfile(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/profile", "")
	wantStatus(t, rec, http.StatusOK)
	if p := decode[models.Profile](t, rec); p.Goals == nil || p.FitnessLevel != "" {
		t.Errorf("default profile = %+v", p)
	}

	wantStatus(t, do(t, s, http.MethodPut, "/api/v1/profile", `{"training_frequency":9}`), http.StatusBadRequest)
	wantStatus(t, do(t, s, http.MethodPut, "/api/v1/profile", `{"fitness_level":"elite"}`), http.StatusBadRequest)

	rec = do(t, s, http.MethodPut, "/api/v1/profile", `{"name":"Sam","fitness_level":"beginner","equipment":["Bodyweight"],"training_frequency":3}`)
	wantStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodGet, "/api/v1/profile", "")
	if p := decode[models.Profile](t, rec); p.Name != "Sam" || p.FitnessLevel != models.Beginner {
		t.Errorf("saved profile = %+v", p)
	}
}

// TestCreateExercise verifies custom exercises are validated and then listed.
func TestCreateExercise(t *testing.T) {
	s := newTestServer(t)

	wantStatus(t, do(t, s, http.MethodPost, "/api/v1/exercises", `{"name":"  "}`), http.StatusBadRequest)

	rec := do(t, s, http.MethodPost, "/api/v1/exercises",
		`{"name":"Landmine Press","category":"Strength","difficulty":"intermediate","muscle_groups_primary":["Shoulders"]}`)
	wantStatus(t, rec, http.StatusCreated)
	ex := decode[models.Exercise](t, rec)
	if !ex.IsCustom {
		t.Error("expected custom exercise")
	}

	rec = do(t, s, http.MethodGet, "/api/v1/exercises?q=landmine", "")
	wantStatus(t, rec, http.StatusOK)
	if list := decode[[]models.Exercise](t, rec); len(list) != 1 || list[0].ID != ex.ID {
		t.Errorf("search = %+v", list)
	}
}

// TestPlanEnrollment walks a plan from suggestion through activation and
// one advance, and checks a second activation conflicts.
func TestPlanEnrollment(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPut, "/api/v1/profile", `{"fitness_level":"beginner","equipment":["Bodyweight"],"training_frequency":3}`)

	rec := do(t, s, http.MethodGet, "/api/v1/plans/suggested", "")
	wantStatus(t, rec, http.StatusOK)
	ranked := decode[[]plans.ScoredPlan](t, rec)
	if len(ranked) == 0 || ranked[0].ID.String() != basicsPlan {
		t.Fatalf("top suggestion = %+v, want %s", ranked, basicsPlan)
	}

	wantStatus(t, do(t, s, http.MethodGet, "/api/v1/plans/active", ""), http.StatusNotFound)
	wantStatus(t, do(t, s, http.MethodPost, "/api/v1/plans/active/advance", ""), http.StatusNotFound)

	rec = do(t, s, http.MethodPost, "/api/v1/plans/"+basicsPlan+"/activate", "")
	wantStatus(t, rec, http.StatusCreated)
	ap := decode[plans.ActivePlan](t, rec)
	if ap.Enrollment.CurrentWeek != 1 || ap.Enrollment.CurrentDay != 1 || ap.ProgressPercent != 0 {
		t.Errorf("enrollment = %+v, progress %d", ap.Enrollment, ap.ProgressPercent)
	}

	wantStatus(t, do(t, s, http.MethodPost, "/api/v1/plans/"+barbellPlan+"/activate", ""), http.StatusConflict)

	rec = do(t, s, http.MethodPost, "/api/v1/plans/active/advance", "")
	wantStatus(t, rec, http.StatusOK)
	if ap := decode[plans.ActivePlan](t, rec); ap.Enrollment.CurrentDay != 2 {
		t.Errorf("current day = %d, want 2", ap.Enrollment.CurrentDay)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/dashboard", "")
	if d := decode[progress.Dashboard](t, rec); d.ActivePlan == nil || d.WeeklyGoal != 3 {
		t.Errorf("dashboard = %+v", d)
	}
}

// TestGetPlanSchedule verifies plan detail groups its workouts by week.
func TestGetPlanSchedule(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/plans/"+basicsPlan, "")
	wantStatus(t, rec, http.StatusOK)

	var detail struct {
		Name  string       `json:"name"`
		Weeks []plans.Week `json:"weeks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if len(detail.Weeks) != 4 {
		t.Fatalf("weeks = %d, want 4", len(detail.Weeks))
	}
	for _, w := range detail.Weeks {
		if len(w.Workouts) != 3 {
			t.Errorf("week %d has %d workouts, want 3", w.Number, len(w.Workouts))
		}
	}

	wantStatus(t, do(t, s, http.MethodGet, "/api/v1/plans/not-a-uuid", ""), http.StatusBadRequest)

	// Another user's private plan is invisible to the caller.
	owner := uuid.New()
	private := models.WorkoutPlan{ID: uuid.New(), Name: "Private", CreatedBy: &owner, Frequency: 2, DurationWeeks: 2, Difficulty: models.Beginner}
	s.store.(*memstore.Store).AddPlan(private)
	wantStatus(t, do(t, s, http.MethodGet, "/api/v1/plans/"+private.ID.String(), ""), http.StatusNotFound)
	wantStatus(t, do(t, s, http.MethodPost, "/api/v1/plans/"+private.ID.String()+"/activate", ""), http.StatusNotFound)
}

// TestSessionFinish drives a live session to a logged workout and checks
// the session is gone afterwards.
func TestSessionFinish(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", `{"name":"Evening"}`)
	wantStatus(t, rec, http.StatusCreated)
	snap := decode[livesession.Snapshot](t, rec)
	base := "/api/v1/sessions/" + snap.ID.String()

	wantStatus(t, do(t, s, http.MethodPost, base+"/finish", ""), http.StatusBadRequest)
	wantStatus(t, do(t, s, http.MethodPost, base+"/exercises", `{"exercise_id":"90000000-0000-0000-0000-000000000001"}`), http.StatusNotFound)

	rec = do(t, s, http.MethodPost, base+"/exercises", fmt.Sprintf(`{"exercise_id":%q}`, pushUpID))
	wantStatus(t, rec, http.StatusOK)
	if snap := decode[livesession.Snapshot](t, rec); !snap.Running || len(snap.Exercises) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	// Nothing is completed yet, so the workout is rejected and the session
	// keeps running.
	wantStatus(t, do(t, s, http.MethodPost, base+"/finish", ""), http.StatusBadRequest)
	rec = do(t, s, http.MethodGet, base, "")
	wantStatus(t, rec, http.StatusOK)
	if snap := decode[livesession.Snapshot](t, rec); !snap.Running {
		t.Errorf("clock stopped after rejected finish: %+v", snap)
	}

	wantStatus(t, do(t, s, http.MethodPut, base+"/exercises/0/sets/3", `{"reps":12}`), http.StatusBadRequest)
	wantStatus(t, do(t, s, http.MethodPut, base+"/exercises/0/sets/0", `{"reps":12,"completed":true}`), http.StatusOK)

	rec = do(t, s, http.MethodPost, base+"/finish", "")
	wantStatus(t, rec, http.StatusCreated)
	logged := decode[logResponse](t, rec)
	if logged.Workout.Name != "Evening" || len(logged.Workout.Exercises) != 1 {
		t.Errorf("workout = %+v", logged.Workout)
	}

	wantStatus(t, do(t, s, http.MethodGet, base, ""), http.StatusNotFound)
}

// TestSessionEvents verifies the event stream opens with a snapshot and
// ends with a closed event when the session is discarded.
func TestSessionEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", `{"name":"Stream"}`)
	wantStatus(t, rec, http.StatusCreated)
	id := decode[livesession.Snapshot](t, rec).ID.String()

	resp, err := http.Get(srv.URL + "/api/v1/sessions/" + id + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if ev, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				lines <- ev
			}
		}
	}()

	next := func() string {
		select {
		case ev, ok := <-lines:
			if !ok {
				t.Fatal("stream ended early")
			}
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
		}
		return ""
	}

	if ev := next(); ev != "snapshot" {
		t.Fatalf("first event = %q, want snapshot", ev)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/sessions/"+id, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("discard status = %d", del.StatusCode)
	}

	for ev := next(); ev != "closed"; ev = next() {
	}
}

// TestAlphaImportRequiresKey verifies the import endpoint is behind the API
// key and reports results when authorized.
func TestAlphaImportRequiresKey(t *testing.T) {
	s := newTestServer(t)
	csv := `"Push · Day 1";"2026-02-17 5:04 h";"45 min"
"1. Barbell Bench Press · Barbell · 6 reps"
#;KG;REPS;RIR
1;100;6;2
`

	wantStatus(t, do(t, s, http.MethodPost, "/api/v1/import/alpha", csv), http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/alpha", bytes.NewBufferString(csv))
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusOK)
	if res := decode[alpha.Result](t, rec); res.WorkoutsInserted != 1 {
		t.Errorf("result = %+v", res)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/import-logs", "")
	wantStatus(t, rec, http.StatusOK)
	var logs []struct {
		Source string `json:"source"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&logs); err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Source != alpha.Source || logs[0].Status != "success" {
		t.Errorf("import logs = %+v", logs)
	}
}

// TestBodyMetrics verifies a measurement is stored and an empty one rejected.
func TestBodyMetrics(t *testing.T) {
	s := newTestServer(t)

	wantStatus(t, do(t, s, http.MethodPost, "/api/v1/body-metrics", `{}`), http.StatusBadRequest)
	wantStatus(t, do(t, s, http.MethodPost, "/api/v1/body-metrics", `{"date":"2026-02-10","weight":81.5}`), http.StatusCreated)

	rec := do(t, s, http.MethodGet, "/api/v1/body-metrics", "")
	wantStatus(t, rec, http.StatusOK)
	list := decode[[]models.BodyMetric](t, rec)
	if len(list) != 1 || list[0].Weight == nil || *list[0].Weight != 81.5 {
		t.Errorf("body metrics = %+v", list)
	}
}

// TestStatusFor verifies domain errors map to HTTP status codes.
func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", workouts.ErrInvalidWorkout), http.StatusBadRequest},
		{errBadRequest, http.StatusBadRequest},
		{ErrNotAuthenticated, http.StatusUnauthorized},
		{models.ErrNotFound, http.StatusNotFound},
		{plans.ErrNoActivePlan, http.StatusNotFound},
		{livesession.ErrSessionNotFound, http.StatusNotFound},
		{plans.ErrPlanAlreadyActive, http.StatusConflict},
		{plans.ErrPlanCompleted, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
