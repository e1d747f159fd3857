package livesession

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/fittrack/internal/metrics"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown sessions and sessions owned by another user.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the open sessions of all users.
type Manager struct {
	log     *slog.Logger
	metrics *metrics.Manager
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty session manager.
func NewManager(m *metrics.Manager, log *slog.Logger) *Manager {
	return &Manager{
		log:      log,
		metrics:  m,
		now:      time.Now,
		sessions: map[uuid.UUID]*Session{},
	}
}

// Start opens a session for the user. The clock starts with the first exercise.
func (m *Manager) Start(userID uuid.UUID, name string, exercises []ExerciseState) *Session {
	s := newSession(userID, name, m.now, m.log)
	if len(exercises) > 0 {
		s.exercises = cloneExercises(exercises)
		s.startClock()
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.metrics.GaugeLiveSessions.Inc()
	m.log.Info("live session started", "session_id", s.id, "user_id", userID)
	return s
}

// Get returns the user's session with the given id.
func (m *Manager) Get(userID, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns snapshots of the user's open sessions.
func (m *Manager) List(userID uuid.UUID) []Snapshot {
	m.mu.Lock()
	var mine []*Session
	for _, s := range m.sessions {
		if s.userID == userID {
			mine = append(mine, s)
		}
	}
	m.mu.Unlock()

	out := make([]Snapshot, 0, len(mine))
	for _, s := range mine {
		out = append(out, s.Snapshot())
	}
	return out
}

// Discard closes and forgets the session.
func (m *Manager) Discard(userID, id uuid.UUID) error {
	s, err := m.Take(userID, id)
	if err != nil {
		return err
	}
	m.End(s)
	return nil
}

// Take removes the session from the manager without closing it, so only one
// caller can finish it. Hand it back with Return or close it with End.
func (m *Manager) Take(userID, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, id)
	return s, nil
}

// Return puts back a session obtained from Take.
func (m *Manager) Return(s *Session) {
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
}

// End closes a session obtained from Take.
func (m *Manager) End(s *Session) {
	s.close()
	m.metrics.GaugeLiveSessions.Dec()
}

// Run discards sessions idle for longer than maxIdle, checking every interval,
// until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(maxIdle)
		}
	}
}

func (m *Manager) sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
		m.metrics.GaugeLiveSessions.Dec()
		m.log.Info("live session expired", "session_id", s.id, "user_id", s.userID)
	}
	return len(stale)
}
