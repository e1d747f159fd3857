package livesession

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/ptr"
	"github.com/claude/fittrack/internal/testhelpers"
	"github.com/claude/fittrack/internal/workouts"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 6, 18, 0, 0, 0, time.UTC)}
	m := NewManager(metrics.NewTestManager(), testhelpers.NewLogger(t))
	m.now = clock.Now
	return m, clock
}

// TestClockStartsWithFirstExercise checks that elapsed time only counts once
// an exercise has been added.
func TestClockStartsWithFirstExercise(t *testing.T) {
	m, clock := newTestManager(t)
	s := m.Start(uuid.New(), "Push", nil)

	clock.Advance(5 * time.Minute)
	if snap := s.Snapshot(); snap.Running || snap.ElapsedSeconds != 0 {
		t.Fatalf("before first exercise: running=%v elapsed=%d", snap.Running, snap.ElapsedSeconds)
	}

	s.AddExercise(uuid.New())
	clock.Advance(90 * time.Second)
	snap := s.Snapshot()
	if !snap.Running || snap.ElapsedSeconds != 90 {
		t.Errorf("running=%v elapsed=%d, want true/90", snap.Running, snap.ElapsedSeconds)
	}
	if len(snap.Exercises) != 1 || len(snap.Exercises[0].Sets) != 1 {
		t.Fatalf("exercises = %+v, want one exercise with one empty set", snap.Exercises)
	}
	if diff := cmp.Diff(SetState{}, snap.Exercises[0].Sets[0]); diff != "" {
		t.Errorf("new set mismatch (-want +got):\n%s", diff)
	}
}

// TestPauseResume checks the clock accumulates across pauses.
func TestPauseResume(t *testing.T) {
	m, clock := newTestManager(t)
	s := m.Start(uuid.New(), "Legs", nil)
	s.AddExercise(uuid.New())

	clock.Advance(time.Minute)
	s.Pause()
	clock.Advance(10 * time.Minute)
	s.Resume()
	clock.Advance(30 * time.Second)

	if got := s.Snapshot().ElapsedSeconds; got != 90 {
		t.Errorf("elapsed = %d, want 90", got)
	}
}

// TestRestCountdownIndependentOfClock checks the rest countdown does not stop
// the elapsed clock and reports remaining whole seconds.
func TestRestCountdownIndependentOfClock(t *testing.T) {
	m, clock := newTestManager(t)
	s := m.Start(uuid.New(), "Pull", nil)
	s.AddExercise(uuid.New())

	if err := s.StartRest(time.Hour); err != nil {
		t.Fatal(err)
	}
	clock.Advance(1500 * time.Millisecond)

	snap := s.Snapshot()
	if !snap.Resting || snap.RestRemainingSeconds != 3599 {
		t.Errorf("resting=%v remaining=%d, want true/3599", snap.Resting, snap.RestRemainingSeconds)
	}
	if snap.ElapsedSeconds != 1 || !snap.Running {
		t.Errorf("elapsed=%d running=%v, want 1/true", snap.ElapsedSeconds, snap.Running)
	}

	s.SkipRest()
	if s.Snapshot().Resting {
		t.Error("still resting after skip")
	}
}

// TestRestCompleteEvent checks an event is published when the countdown ends.
func TestRestCompleteEvent(t *testing.T) {
	m := NewManager(metrics.NewTestManager(), testhelpers.NewLogger(t))
	s := m.Start(uuid.New(), "Quick", nil)
	events, stop := s.Subscribe()
	defer stop()

	if err := s.StartRest(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if ev.Kind != RestComplete || ev.SessionID != s.ID() {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rest complete event")
	}
	if s.Snapshot().Resting {
		t.Error("still resting after completion")
	}
}

// TestRestartRestReplacesCountdown checks only the latest countdown fires.
func TestRestartRestReplacesCountdown(t *testing.T) {
	m := NewManager(metrics.NewTestManager(), testhelpers.NewLogger(t))
	s := m.Start(uuid.New(), "Quick", nil)
	events, stop := s.Subscribe()
	defer stop()

	if err := s.StartRest(20 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := s.StartRest(time.Hour); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
	s.SkipRest()
	if err := s.StartRest(0); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("zero rest err = %v, want ErrInvalidSession", err)
	}
}

// TestSetEdits covers toggling, adding, updating and removing.
func TestSetEdits(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.Start(uuid.New(), "Push", nil)
	bench, row := uuid.New(), uuid.New()
	s.AddExercise(bench)
	s.AddExercise(row)

	if err := s.AddSet(0); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateSet(0, 1, SetState{Reps: ptr.Ref(5), Weight: ptr.Ref(100.0)}); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleSet(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveExercise(1); err != nil {
		t.Fatal(err)
	}

	want := []ExerciseState{{
		ExerciseID: bench,
		Sets: []SetState{
			{},
			{Reps: ptr.Ref(5), Weight: ptr.Ref(100.0), Completed: true},
		},
	}}
	if diff := cmp.Diff(want, s.Snapshot().Exercises); diff != "" {
		t.Errorf("exercises mismatch (-want +got):\n%s", diff)
	}

	for name, err := range map[string]error{
		"add set": s.AddSet(3),
		"update":  s.UpdateSet(0, 9, SetState{}),
		"toggle":  s.ToggleSet(-1, 0),
		"remove":  s.RemoveExercise(1),
	} {
		if !errors.Is(err, ErrInvalidSession) {
			t.Errorf("%s: err = %v, want ErrInvalidSession", name, err)
		}
	}
}

// TestLogRequest checks conversion keeps completed sets with data and rounds
// the duration to minutes.
func TestLogRequest(t *testing.T) {
	m, clock := newTestManager(t)
	s := m.Start(uuid.New(), "  Push Day ", nil)
	bench, fly := uuid.New(), uuid.New()
	s.AddExercise(bench)
	s.AddExercise(fly)

	_ = s.UpdateSet(0, 0, SetState{Reps: ptr.Ref(5), Weight: ptr.Ref(100.0), Completed: true})
	_ = s.AddSet(0)
	_ = s.UpdateSet(0, 1, SetState{Reps: ptr.Ref(5), Weight: ptr.Ref(105.0)})
	_ = s.AddSet(0)
	_ = s.ToggleSet(0, 2)

	clock.Advance(44*time.Minute + 31*time.Second)

	got, err := s.LogRequest()
	if err != nil {
		t.Fatal(err)
	}
	want := workouts.LogRequest{
		Name:            "Push Day",
		Date:            "2024-05-06",
		DurationMinutes: ptr.Ref(45),
		Exercises: []workouts.ExerciseInput{
			{ExerciseID: bench, Sets: []workouts.SetInput{{Reps: ptr.Ref(5), Weight: ptr.Ref(100.0)}}},
			{ExerciseID: fly},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	if !s.Snapshot().Running {
		t.Error("conversion stopped the clock")
	}
}

// TestRejectedFinishKeepsClock checks a session handed back after a failed
// finish is still open and its clock keeps counting.
func TestRejectedFinishKeepsClock(t *testing.T) {
	m, clock := newTestManager(t)
	user := uuid.New()
	s := m.Start(user, "Pull", nil)
	s.AddExercise(uuid.New())
	clock.Advance(time.Minute)

	taken, err := m.Take(user, s.ID())
	if err != nil {
		t.Fatal(err)
	}
	req, err := taken.LogRequest()
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Exercises) != 1 || len(req.Exercises[0].Sets) != 0 {
		t.Fatalf("request = %+v, want one exercise without sets", req)
	}
	m.Return(taken)

	clock.Advance(10 * time.Minute)
	got, err := m.Get(user, s.ID())
	if err != nil {
		t.Fatalf("session gone after return: %v", err)
	}
	if snap := got.Snapshot(); !snap.Running || snap.ElapsedSeconds != 660 {
		t.Errorf("running=%v elapsed=%d, want true/660", snap.Running, snap.ElapsedSeconds)
	}
}

// TestTakeClaimsOnce checks only one caller can take a session and an ended
// session releases the gauge.
func TestTakeClaimsOnce(t *testing.T) {
	mm := metrics.NewTestManager()
	m := NewManager(mm, testhelpers.NewLogger(t))
	user := uuid.New()
	s := m.Start(user, "Legs", nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var won []*Session
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := m.Take(user, s.ID()); err == nil {
				mu.Lock()
				won = append(won, got)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(won) != 1 {
		t.Fatalf("%d callers took the session, want 1", len(won))
	}
	if _, err := m.Get(user, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("taken session still listed: %v", err)
	}

	m.End(won[0])
	if got := testutil.ToFloat64(mm.GaugeLiveSessions); got != 0 {
		t.Errorf("gauge = %v, want 0", got)
	}
}

// TestLogRequestValidation checks a name and an exercise are required.
func TestLogRequestValidation(t *testing.T) {
	m, _ := newTestManager(t)

	unnamed := m.Start(uuid.New(), " ", nil)
	unnamed.AddExercise(uuid.New())
	if _, err := unnamed.LogRequest(); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("unnamed err = %v", err)
	}

	empty := m.Start(uuid.New(), "Empty", nil)
	if _, err := empty.LogRequest(); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("empty err = %v", err)
	}
}

// TestManagerOwnership checks sessions are scoped to their user and the gauge
// follows open sessions.
func TestManagerOwnership(t *testing.T) {
	mm := metrics.NewTestManager()
	m := NewManager(mm, testhelpers.NewLogger(t))
	alice, bob := uuid.New(), uuid.New()

	s := m.Start(alice, "A", nil)
	m.Start(alice, "B", nil)
	if got := testutil.ToFloat64(mm.GaugeLiveSessions); got != 2 {
		t.Fatalf("gauge = %v, want 2", got)
	}

	if _, err := m.Get(bob, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign get err = %v", err)
	}
	if err := m.Discard(bob, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign discard err = %v", err)
	}
	if got := len(m.List(alice)); got != 2 {
		t.Errorf("alice sessions = %d, want 2", got)
	}
	if got := len(m.List(bob)); got != 0 {
		t.Errorf("bob sessions = %d, want 0", got)
	}

	if err := m.Discard(alice, s.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(alice, s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("get after discard err = %v", err)
	}
	if got := testutil.ToFloat64(mm.GaugeLiveSessions); got != 1 {
		t.Errorf("gauge = %v, want 1", got)
	}
}

// TestStartWithExercises checks prefilled sessions start the clock.
func TestStartWithExercises(t *testing.T) {
	m, clock := newTestManager(t)
	s := m.Start(uuid.New(), "From template", []ExerciseState{{ExerciseID: uuid.New(), Sets: []SetState{{}, {}}}})
	clock.Advance(time.Minute)

	snap := s.Snapshot()
	if !snap.Running || snap.ElapsedSeconds != 60 || len(snap.Exercises[0].Sets) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

// TestSweep checks idle sessions are expired.
func TestSweep(t *testing.T) {
	m, clock := newTestManager(t)
	user := uuid.New()
	idle := m.Start(user, "idle", nil)
	clock.Advance(3 * time.Hour)
	busy := m.Start(user, "busy", nil)

	if n := m.sweep(2 * time.Hour); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, err := m.Get(user, idle.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session still present: %v", err)
	}
	if _, err := m.Get(user, busy.ID()); err != nil {
		t.Errorf("busy session gone: %v", err)
	}
}

// TestDiscardEndsSubscriptions checks subscribers see the channel close when
// the session is discarded, and late subscribers get a closed channel.
func TestDiscardEndsSubscriptions(t *testing.T) {
	m := NewManager(metrics.NewTestManager(), testhelpers.NewLogger(t))
	user := uuid.New()
	s := m.Start(user, "Quick", nil)
	events, stop := s.Subscribe()

	if err := m.Discard(user, s.ID()); err != nil {
		t.Fatal(err)
	}
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	stop()

	late, stopLate := s.Subscribe()
	defer stopLate()
	if _, ok := <-late; ok {
		t.Error("late subscription should be closed")
	}
}
