// Package testhelpers provides shared test utilities.
package testhelpers

import (
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/claude/fittrack/internal/logging"
)

// NewLogger returns a debug logger that writes through t.Log, so output only
// shows for failing tests.
func NewLogger(t *testing.T) *slog.Logger {
	w := &writer{t: t}
	t.Cleanup(func() {
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(logging.NewContextHandler(h))
}

type writer struct {
	t    *testing.T
	mu   sync.Mutex
	done bool
}

func (w *writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Timers may still fire after the test returns.
	if w.done {
		return len(p), nil
	}
	if out := strings.TrimSuffix(string(p), "\n"); out != "" {
		w.t.Log(out)
	}
	return len(p), nil
}
