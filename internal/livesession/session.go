// Package livesession tracks in-progress workouts: an elapsed clock that runs
// while the user trains and an independent rest countdown.
package livesession

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/claude/fittrack/internal/workouts"
	"github.com/google/uuid"
)

var (
	// ErrInvalidSession is returned for edits that reference missing entries
	// and for sessions that cannot be finished yet.
	ErrInvalidSession = errors.New("invalid session")
)

// EventKind names a session event.
type EventKind string

const RestComplete EventKind = "rest_complete"

// Event is published on a session's event channel.
type Event struct {
	SessionID uuid.UUID `json:"session_id"`
	Kind      EventKind `json:"kind"`
	At        time.Time `json:"at"`
}

// SetState is a set as edited during the session.
type SetState struct {
	Reps      *int     `json:"reps"`
	Weight    *float64 `json:"weight"`
	RPE       *int     `json:"rpe"`
	Completed bool     `json:"completed"`
}

// ExerciseState is an exercise and its sets.
type ExerciseState struct {
	ExerciseID uuid.UUID  `json:"exercise_id"`
	Sets       []SetState `json:"sets"`
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Exercises            []ExerciseState `json:"exercises"`
	Running              bool            `json:"running"`
	ElapsedSeconds       int             `json:"elapsed_seconds"`
	Resting              bool            `json:"resting"`
	RestRemainingSeconds int             `json:"rest_remaining_seconds"`
}

// Session is one user's live workout. All methods are safe for concurrent use.
type Session struct {
	id     uuid.UUID
	userID uuid.UUID
	log    *slog.Logger
	now    func() time.Time

	subsMu sync.Mutex
	subs   map[chan Event]struct{}

	mu           sync.Mutex
	name         string
	exercises    []ExerciseState
	running      bool
	runningSince time.Time
	accumulated  time.Duration
	resting      bool
	restEnds     time.Time
	restTimer    *time.Timer
	restGen      int
	lastActivity time.Time
	closed       bool
}

func newSession(userID uuid.UUID, name string, now func() time.Time, log *slog.Logger) *Session {
	return &Session{
		id:           uuid.New(),
		userID:       userID,
		name:         name,
		now:          now,
		log:          log,
		subs:         map[chan Event]struct{}{},
		lastActivity: now(),
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Subscribe returns a channel of session events and a function that stops
// the subscription. Slow subscribers miss events. The channel is closed when
// the session ends.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	s.subsMu.Lock()
	if s.subs == nil {
		close(ch)
	} else {
		s.subs[ch] = struct{}{}
	}
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Session) broadcast(ev Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// endSubscriptions closes every subscriber channel.
func (s *Session) endSubscriptions() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// SetName renames the session.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.touch()
}

// AddExercise appends an exercise with one empty set and starts the clock if it is not running.
func (s *Session) AddExercise(exerciseID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises = append(s.exercises, ExerciseState{ExerciseID: exerciseID, Sets: []SetState{{}}})
	s.startClock()
	s.touch()
}

// RemoveExercise drops the exercise at index i.
func (s *Session) RemoveExercise(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.exercises) {
		return fmt.Errorf("%w: no exercise %d", ErrInvalidSession, i)
	}
	s.exercises = append(s.exercises[:i], s.exercises[i+1:]...)
	s.touch()
	return nil
}

// AddSet appends an empty set to exercise i.
func (s *Session) AddSet(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.exercises) {
		return fmt.Errorf("%w: no exercise %d", ErrInvalidSession, i)
	}
	s.exercises[i].Sets = append(s.exercises[i].Sets, SetState{})
	s.touch()
	return nil
}

// UpdateSet replaces set j of exercise i.
func (s *Session) UpdateSet(i, j int, st SetState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.set(i, j)
	if err != nil {
		return err
	}
	*set = st
	s.touch()
	return nil
}

// ToggleSet flips the completed flag of set j of exercise i.
func (s *Session) ToggleSet(i, j int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.set(i, j)
	if err != nil {
		return err
	}
	set.Completed = !set.Completed
	s.touch()
	return nil
}

func (s *Session) set(i, j int) (*SetState, error) {
	if i < 0 || i >= len(s.exercises) {
		return nil, fmt.Errorf("%w: no exercise %d", ErrInvalidSession, i)
	}
	if j < 0 || j >= len(s.exercises[i].Sets) {
		return nil, fmt.Errorf("%w: no set %d for exercise %d", ErrInvalidSession, j, i)
	}
	return &s.exercises[i].Sets[j], nil
}

// Pause stops the elapsed clock.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClock()
	s.touch()
}

// Resume restarts the elapsed clock.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startClock()
	s.touch()
}

// StartRest begins a rest countdown of d, replacing any running one. The
// elapsed clock is not affected. When the countdown ends a RestComplete
// event is published.
func (s *Session) StartRest(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: rest must be positive", ErrInvalidSession)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session closed", ErrInvalidSession)
	}
	if s.restTimer != nil {
		s.restTimer.Stop()
	}
	s.resting = true
	s.restEnds = s.now().Add(d)
	s.restGen++
	gen := s.restGen
	s.restTimer = time.AfterFunc(d, func() { s.restDone(gen) })
	s.touch()
	return nil
}

// SkipRest cancels the rest countdown without an event.
func (s *Session) SkipRest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRest()
	s.touch()
}

func (s *Session) restDone(gen int) {
	s.mu.Lock()
	if gen != s.restGen || !s.resting || s.closed {
		s.mu.Unlock()
		return
	}
	s.resting = false
	s.restTimer = nil
	s.mu.Unlock()

	ev := Event{SessionID: s.id, Kind: RestComplete, At: s.now()}
	s.log.Info("rest complete", "session_id", s.id, "user_id", s.userID)
	s.broadcast(ev)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		Name:           s.name,
		Exercises:      cloneExercises(s.exercises),
		Running:        s.running,
		ElapsedSeconds: int(s.elapsed() / time.Second),
	}
	if s.resting {
		if left := s.restEnds.Sub(s.now()); left > 0 {
			snap.Resting = true
			snap.RestRemainingSeconds = int(math.Ceil(left.Seconds()))
		}
	}
	return snap
}

// LogRequest converts the session into a workout to save: only completed
// sets with reps or weight are kept and the duration is the elapsed time
// rounded to whole minutes. The session is left untouched, so a rejected
// workout can be fixed and finished again.
func (s *Session) LogRequest() (workouts.LogRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(s.name)
	if name == "" {
		return workouts.LogRequest{}, fmt.Errorf("%w: give your workout a name", ErrInvalidSession)
	}
	if len(s.exercises) == 0 {
		return workouts.LogRequest{}, fmt.Errorf("%w: add at least one exercise", ErrInvalidSession)
	}

	minutes := int(math.Round(s.elapsed().Minutes()))
	req := workouts.LogRequest{
		Name:            name,
		Date:            s.now().Format(time.DateOnly),
		DurationMinutes: &minutes,
	}
	for _, ex := range s.exercises {
		in := workouts.ExerciseInput{ExerciseID: ex.ExerciseID}
		for _, st := range ex.Sets {
			if !st.Completed || (st.Reps == nil && st.Weight == nil) {
				continue
			}
			in.Sets = append(in.Sets, workouts.SetInput{Reps: st.Reps, Weight: st.Weight, RPE: st.RPE})
		}
		req.Exercises = append(req.Exercises, in)
	}
	return req, nil
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.stopClock()
	s.cancelRest()
	s.mu.Unlock()
	s.endSubscriptions()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Callers hold s.mu for the helpers below.

func (s *Session) startClock() {
	if !s.running {
		s.running = true
		s.runningSince = s.now()
	}
}

func (s *Session) stopClock() {
	if s.running {
		s.accumulated += s.now().Sub(s.runningSince)
		s.running = false
	}
}

func (s *Session) elapsed() time.Duration {
	if s.running {
		return s.accumulated + s.now().Sub(s.runningSince)
	}
	return s.accumulated
}

func (s *Session) cancelRest() {
	if s.restTimer != nil {
		s.restTimer.Stop()
		s.restTimer = nil
	}
	s.restGen++
	s.resting = false
}

func (s *Session) touch() {
	s.lastActivity = s.now()
}

func cloneExercises(in []ExerciseState) []ExerciseState {
	out := make([]ExerciseState, len(in))
	for i, ex := range in {
		out[i] = ExerciseState{ExerciseID: ex.ExerciseID, Sets: append([]SetState(nil), ex.Sets...)}
	}
	return out
}
