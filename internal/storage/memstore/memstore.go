// Package memstore is an in-memory implementation of the repository used for
// local demos and tests. It mirrors the PostgreSQL repository's semantics,
// including the uniqueness rules enforced there by indexes.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/storage"
	"github.com/google/uuid"
)

type recordKey struct {
	user     uuid.UUID
	exercise uuid.UUID
	kind     models.RecordType
}

type workoutRow struct {
	detail models.WorkoutDetail
	seq    int
}

// Store holds every table in maps guarded by one mutex.
type Store struct {
	mu  sync.RWMutex
	seq int
	now func() time.Time

	users       map[string]*models.User
	profiles    map[uuid.UUID]models.Profile
	exercises   map[uuid.UUID]models.Exercise
	workouts    map[uuid.UUID]*workoutRow
	records     map[recordKey]models.PersonalRecord
	bodyMetrics []models.BodyMetric
	templates   map[uuid.UUID]models.WorkoutTemplate
	plans       map[uuid.UUID]models.WorkoutPlan
	enrollments []models.UserActivePlan
	importLogs  []storage.ImportLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:       time.Now,
		users:     map[string]*models.User{},
		profiles:  map[uuid.UUID]models.Profile{},
		exercises: map[uuid.UUID]models.Exercise{},
		workouts:  map[uuid.UUID]*workoutRow{},
		records:   map[recordKey]models.PersonalRecord{},
		templates: map[uuid.UUID]models.WorkoutTemplate{},
		plans:     map[uuid.UUID]models.WorkoutPlan{},
	}
}

func (s *Store) next() int {
	s.seq++
	return s.seq
}

// GetOrCreateUser finds or creates a user by login name.
func (s *Store) GetOrCreateUser(_ context.Context, login, displayName string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[login]
	if !ok {
		u = &models.User{ID: uuid.New(), Login: login, CreatedAt: s.now()}
		s.users[login] = u
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	out := *u
	return &out, nil
}

// GetProfile returns the user's profile or models.ErrNotFound.
func (s *Store) GetProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

// UpsertProfile replaces the user's profile.
func (s *Store) UpsertProfile(_ context.Context, p models.Profile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = s.now()
	p.Goals = slices.Clone(p.Goals)
	p.Equipment = slices.Clone(p.Equipment)
	s.profiles[p.UserID] = p
	return &p, nil
}

func visible(ex models.Exercise, userID uuid.UUID) bool {
	return ex.CreatedBy == nil || *ex.CreatedBy == userID
}

// ListExercises returns system exercises plus the user's custom ones, by name.
func (s *Store) ListExercises(_ context.Context, userID uuid.UUID) ([]models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Exercise{}
	for _, ex := range s.exercises {
		if visible(ex, userID) {
			out = append(out, ex)
		}
	}
	slices.SortFunc(out, func(a, b models.Exercise) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// GetExercise returns one exercise visible to the user.
func (s *Store) GetExercise(_ context.Context, userID, id uuid.UUID) (*models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ex, ok := s.exercises[id]
	if !ok || !visible(ex, userID) {
		return nil, models.ErrNotFound
	}
	return &ex, nil
}

// GetExercises returns the visible exercises among ids, keyed by id.
func (s *Store) GetExercises(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[uuid.UUID]models.Exercise{}
	for _, id := range ids {
		if ex, ok := s.exercises[id]; ok && visible(ex, userID) {
			out[id] = ex
		}
	}
	return out, nil
}

// FindExerciseByName does a case-insensitive lookup, preferring the user's own exercise.
func (s *Store) FindExerciseByName(_ context.Context, userID uuid.UUID, name string) (*models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Exercise
	for _, ex := range s.exercises {
		if !visible(ex, userID) || !strings.EqualFold(ex.Name, name) {
			continue
		}
		if ex.CreatedBy != nil {
			return &ex, nil
		}
		found = &ex
	}
	if found == nil {
		return nil, models.ErrNotFound
	}
	return found, nil
}

// InsertExercise stores an exercise. Names are unique per owner, ignoring case.
func (s *Store) InsertExercise(_ context.Context, ex models.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.exercises {
		sameOwner := (other.CreatedBy == nil) == (ex.CreatedBy == nil) &&
			(other.CreatedBy == nil || *other.CreatedBy == *ex.CreatedBy)
		if sameOwner && strings.EqualFold(other.Name, ex.Name) {
			return fmt.Errorf("inserting exercise %q: %w", ex.Name, models.ErrConflict)
		}
	}
	s.exercises[ex.ID] = ex
	return nil
}

// InsertWorkout stores the workout with its exercises and sets.
func (s *Store) InsertWorkout(_ context.Context, w *models.WorkoutDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workouts[w.ID]; ok {
		return fmt.Errorf("inserting workout: %w", models.ErrConflict)
	}
	w.CreatedAt = s.now()
	s.workouts[w.ID] = &workoutRow{detail: cloneDetail(*w), seq: s.next()}
	return nil
}

func (s *Store) sortedWorkouts(userID uuid.UUID, keep func(models.Workout) bool) []models.Workout {
	var rows []*workoutRow
	for _, r := range s.workouts {
		if r.detail.UserID == userID && keep(r.detail.Workout) {
			rows = append(rows, r)
		}
	}
	slices.SortFunc(rows, func(a, b *workoutRow) int {
		if c := b.detail.Date.Compare(a.detail.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	out := make([]models.Workout, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.detail.Workout)
	}
	return out
}

// ListWorkouts returns workouts dated in [start, end), newest first.
func (s *Store) ListWorkouts(_ context.Context, userID uuid.UUID, start, end time.Time) ([]models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedWorkouts(userID, func(w models.Workout) bool {
		return !w.Date.Before(start) && w.Date.Before(end)
	}), nil
}

// AllWorkouts returns the user's full history, newest first.
func (s *Store) AllWorkouts(_ context.Context, userID uuid.UUID) ([]models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedWorkouts(userID, func(models.Workout) bool { return true }), nil
}

// RecentWorkouts returns the user's latest workouts.
func (s *Store) RecentWorkouts(_ context.Context, userID uuid.UUID, limit int) ([]models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sortedWorkouts(userID, func(models.Workout) bool { return true })
	return all[:min(limit, len(all))], nil
}

// WorkoutExists reports whether the user has a workout with this name on this date.
func (s *Store) WorkoutExists(_ context.Context, userID uuid.UUID, date time.Time, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.workouts {
		w := r.detail.Workout
		if w.UserID == userID && w.Name == name && w.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

// WorkoutDates returns the date of every workout the user logged.
func (s *Store) WorkoutDates(_ context.Context, userID uuid.UUID) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []time.Time
	for _, w := range s.sortedWorkouts(userID, func(models.Workout) bool { return true }) {
		out = append(out, w.Date)
	}
	return out, nil
}

// GetWorkout returns a workout with its exercises and sets.
func (s *Store) GetWorkout(_ context.Context, userID, workoutID uuid.UUID) (*models.WorkoutDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.workouts[workoutID]
	if !ok || r.detail.UserID != userID {
		return nil, models.ErrNotFound
	}
	d := cloneDetail(r.detail)
	for i := range d.Exercises {
		d.Exercises[i].ExerciseName = s.exercises[d.Exercises[i].ExerciseID].Name
	}
	return &d, nil
}

// DeleteWorkout removes a workout. Records referencing it lose the reference.
func (s *Store) DeleteWorkout(_ context.Context, userID, workoutID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.workouts[workoutID]
	if !ok || r.detail.UserID != userID {
		return models.ErrNotFound
	}
	delete(s.workouts, workoutID)
	for k, rec := range s.records {
		if rec.WorkoutID != nil && *rec.WorkoutID == workoutID {
			rec.WorkoutID = nil
			s.records[k] = rec
		}
	}
	return nil
}

// RaiseRecord writes rec when it is the first for its key or strictly greater.
func (s *Store) RaiseRecord(_ context.Context, rec models.PersonalRecord) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{rec.UserID, rec.ExerciseID, rec.RecordType}
	if cur, ok := s.records[k]; ok {
		if cur.Value >= rec.Value {
			return uuid.Nil, false, nil
		}
		rec.ID = cur.ID
	}
	rec.CreatedAt = s.now()
	s.records[k] = rec
	return rec.ID, true, nil
}

func (s *Store) userRecords(userID uuid.UUID, keep func(models.PersonalRecord) bool) []models.PersonalRecord {
	out := []models.PersonalRecord{}
	for _, r := range s.records {
		if r.UserID == userID && keep(r) {
			r.ExerciseName = s.exercises[r.ExerciseID].Name
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.PersonalRecord) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// ListRecords returns the user's records, newest first, optionally for one exercise.
func (s *Store) ListRecords(_ context.Context, userID uuid.UUID, exerciseID *uuid.UUID) ([]models.PersonalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userRecords(userID, func(r models.PersonalRecord) bool {
		return exerciseID == nil || r.ExerciseID == *exerciseID
	}), nil
}

// RecentRecords returns the user's latest records.
func (s *Store) RecentRecords(_ context.Context, userID uuid.UUID, limit int) ([]models.PersonalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.userRecords(userID, func(models.PersonalRecord) bool { return true })
	return all[:min(limit, len(all))], nil
}

// InsertBodyMetric stores one measurement entry.
func (s *Store) InsertBodyMetric(_ context.Context, m models.BodyMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodyMetrics = append(s.bodyMetrics, m)
	return nil
}

// ListBodyMetrics returns the user's measurements, newest first.
func (s *Store) ListBodyMetrics(_ context.Context, userID uuid.UUID) ([]models.BodyMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.BodyMetric{}
	for i := len(s.bodyMetrics) - 1; i >= 0; i-- {
		if s.bodyMetrics[i].UserID == userID {
			out = append(out, s.bodyMetrics[i])
		}
	}
	slices.SortStableFunc(out, func(a, b models.BodyMetric) int { return b.Date.Compare(a.Date) })
	return out, nil
}

// MuscleHits returns one primary muscle group per logged exercise and group.
func (s *Store) MuscleHits(_ context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, r := range s.workouts {
		if r.detail.UserID != userID {
			continue
		}
		for _, we := range r.detail.Exercises {
			out = append(out, s.exercises[we.ExerciseID].MusclesPrimary...)
		}
	}
	return out, nil
}

// TotalVolume sums weight x reps over the user's completed sets.
func (s *Store) TotalVolume(_ context.Context, userID uuid.UUID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, r := range s.workouts {
		if r.detail.UserID != userID {
			continue
		}
		for _, we := range r.detail.Exercises {
			for _, st := range we.Sets {
				if st.Completed && st.Weight != nil && st.Reps != nil {
					total += *st.Weight * float64(*st.Reps)
				}
			}
		}
	}
	return total, nil
}

// ListTemplates returns system templates and the user's own.
func (s *Store) ListTemplates(_ context.Context, userID uuid.UUID) ([]models.WorkoutTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.WorkoutTemplate{}
	for _, t := range s.templates {
		if t.UserID == nil || *t.UserID == userID {
			out = append(out, s.withNames(t))
		}
	}
	slices.SortFunc(out, func(a, b models.WorkoutTemplate) int {
		if (a.UserID == nil) != (b.UserID == nil) {
			if a.UserID == nil {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// GetTemplate returns a system template or one of the user's own.
func (s *Store) GetTemplate(_ context.Context, userID, templateID uuid.UUID) (*models.WorkoutTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[templateID]
	if !ok || (t.UserID != nil && *t.UserID != userID) {
		return nil, models.ErrNotFound
	}
	t = s.withNames(t)
	return &t, nil
}

func (s *Store) withNames(t models.WorkoutTemplate) models.WorkoutTemplate {
	t.Exercises = slices.Clone(t.Exercises)
	for i := range t.Exercises {
		t.Exercises[i].ExerciseName = s.exercises[t.Exercises[i].ExerciseID].Name
	}
	return t
}

// InsertTemplate stores a template with its exercises.
func (s *Store) InsertTemplate(_ context.Context, t *models.WorkoutTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.CreatedAt = s.now()
	c := *t
	c.Exercises = slices.Clone(t.Exercises)
	s.templates[t.ID] = c
	return nil
}

// AddPlan stores a plan with its scheduled workouts.
func (s *Store) AddPlan(p models.WorkoutPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Workouts = slices.Clone(p.Workouts)
	s.plans[p.ID] = p
}

// ListSystemPlans returns the system plan catalog by name, without workouts.
func (s *Store) ListSystemPlans(_ context.Context) ([]models.WorkoutPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.WorkoutPlan{}
	for _, p := range s.plans {
		if p.IsSystemPlan {
			p.Workouts = nil
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.WorkoutPlan) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// GetPlan returns a system plan or one of the user's own plans with its
// workouts ordered by week and day.
func (s *Store) GetPlan(_ context.Context, userID, planID uuid.UUID) (*models.WorkoutPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok || !(p.IsSystemPlan || (p.CreatedBy != nil && *p.CreatedBy == userID)) {
		return nil, models.ErrNotFound
	}
	p.Workouts = slices.Clone(p.Workouts)
	for i := range p.Workouts {
		p.Workouts[i].TemplateName = s.templates[p.Workouts[i].TemplateID].Name
	}
	slices.SortFunc(p.Workouts, func(a, b models.PlanWorkout) int {
		if c := cmp.Compare(a.WeekNumber, b.WeekNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.DayNumber, b.DayNumber)
	})
	return &p, nil
}

// GetActivePlan returns the user's newest uncompleted enrollment.
func (s *Store) GetActivePlan(_ context.Context, userID uuid.UUID) (*models.UserActivePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.enrollments) - 1; i >= 0; i-- {
		if ap := s.enrollments[i]; ap.UserID == userID && !ap.Completed {
			return &ap, nil
		}
	}
	return nil, models.ErrNotFound
}

// InsertActivePlan stores an enrollment; one uncompleted enrollment per user.
func (s *Store) InsertActivePlan(_ context.Context, ap models.UserActivePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.enrollments {
		if other.UserID == ap.UserID && !other.Completed && !ap.Completed {
			return fmt.Errorf("inserting active plan: %w", models.ErrConflict)
		}
	}
	ap.CreatedAt = s.now()
	s.enrollments = append(s.enrollments, ap)
	return nil
}

// UpdateActivePlan moves an unfinished enrollment from the position in from
// to the one in to, or returns models.ErrConflict when it has moved since.
func (s *Store) UpdateActivePlan(_ context.Context, from, to models.UserActivePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.enrollments {
		if cur.ID != to.ID || cur.UserID != to.UserID {
			continue
		}
		if cur.Completed || cur.CurrentWeek != from.CurrentWeek || cur.CurrentDay != from.CurrentDay {
			break
		}
		cur.CurrentWeek, cur.CurrentDay, cur.Completed = to.CurrentWeek, to.CurrentDay, to.Completed
		s.enrollments[i] = cur
		return nil
	}
	return fmt.Errorf("updating active plan: %w", models.ErrConflict)
}

// InsertImportLog stores an import log and returns its id.
func (s *Store) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = int64(len(s.importLogs) + 1)
	l.CreatedAt = s.now()
	s.importLogs = append(s.importLogs, l)
	return l.ID, nil
}

// UpdateImportLog replaces the outcome of an import log.
func (s *Store) UpdateImportLog(_ context.Context, id int64, l storage.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || int(id) > len(s.importLogs) {
		return models.ErrNotFound
	}
	cur := s.importLogs[id-1]
	l.ID, l.UserID, l.CreatedAt, l.Source = cur.ID, cur.UserID, cur.CreatedAt, cur.Source
	s.importLogs[id-1] = l
	return nil
}

// QueryImportLogs returns the user's most recent import logs.
func (s *Store) QueryImportLogs(_ context.Context, userID uuid.UUID, limit int) ([]storage.ImportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := []storage.ImportLog{}
	for i := len(s.importLogs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.importLogs[i].UserID == userID {
			out = append(out, s.importLogs[i])
		}
	}
	return out, nil
}

func cloneDetail(d models.WorkoutDetail) models.WorkoutDetail {
	d.Exercises = slices.Clone(d.Exercises)
	for i := range d.Exercises {
		d.Exercises[i].Sets = slices.Clone(d.Exercises[i].Sets)
	}
	return d
}
