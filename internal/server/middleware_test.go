package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/storage/memstore"
	"github.com/claude/fittrack/internal/testhelpers"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"
)

type fakeWhoIs struct {
	resp *apitype.WhoIsResponse
	err  error
	addr string
}

func (f *fakeWhoIs) WhoIs(_ context.Context, remoteAddr string) (*apitype.WhoIsResponse, error) {
	f.addr = remoteAddr
	return f.resp, f.err
}

func identityServer(t *testing.T) *Server {
	t.Helper()
	return &Server{store: memstore.New(), log: testhelpers.NewLogger(t)}
}

// TestDevIdentity verifies that the dev user is resolved to a stable user id
// and stored in the request context.
func TestDevIdentity(t *testing.T) {
	s := identityServer(t)
	s.SetDevUser("local")

	var ids []uuid.UUID
	var info UserInfo
	handler := s.identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserID(r.Context())
		ids = append(ids, id)
		info, _ = userInfoFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}
	if ids[0] == uuid.Nil || ids[0] != ids[1] {
		t.Errorf("user ids = %v, want one stable id", ids)
	}
	if info.Login != "local" || info.ID != ids[0] {
		t.Errorf("info = %+v", info)
	}
}

// TestTailscaleIdentity verifies that WhoIs is consulted with the remote
// address and its login becomes the user.
func TestTailscaleIdentity(t *testing.T) {
	s := identityServer(t)
	s.SetDevUser("local")
	who := &fakeWhoIs{resp: &apitype.WhoIsResponse{
		UserProfile: &tailcfg.UserProfile{LoginName: "alice@example.com", DisplayName: "Alice"},
	}}
	s.whois = who

	var info UserInfo
	handler := s.identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ = userInfoFromContext(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "100.64.0.7:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if who.addr != "100.64.0.7:51234" {
		t.Errorf("WhoIs addr = %q", who.addr)
	}
	if info.Login != "alice@example.com" || info.DisplayName != "Alice" {
		t.Errorf("info = %+v", info)
	}
}

// TestIdentityRejectsUnknownCaller verifies that requests get 401 before the
// handler runs when no identity can be resolved.
func TestIdentityRejectsUnknownCaller(t *testing.T) {
	tests := map[string]func(*Server){
		"no identity source": func(*Server) {},
		"whois error": func(s *Server) {
			s.whois = &fakeWhoIs{err: errors.New("no peer")}
		},
		"tagged node without user": func(s *Server) {
			s.whois = &fakeWhoIs{resp: &apitype.WhoIsResponse{}}
		},
	}
	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			s := identityServer(t)
			setup(s)
			handler := s.identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not run")
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

// TestUserIDMissing verifies that UserID reports absence on a bare context.
func TestUserIDMissing(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Error("expected no user id")
	}
}

// TestAPIKeyAuth verifies missing and wrong keys are rejected.
func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	tests := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusForbidden},
		{"secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tt.key != "" {
			req.Header.Set("X-API-Key", tt.key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("key %q: status = %d, want %d", tt.key, rec.Code, tt.want)
		}
	}
}

// TestRequestLogging verifies that the logging middleware calls the next handler and records status.
func TestRequestLogging(t *testing.T) {
	handler := RequestLogging(testhelpers.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

// TestRequestMetricsUsesRoutePattern verifies requests are counted under the
// route pattern rather than the concrete path.
func TestRequestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.NewTestManager()
	r := chi.NewRouter()
	r.Use(RequestMetrics(m))
	r.Get("/api/v1/workouts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/workouts/"+uuid.NewString(), nil))
	}
	got := testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodGet, "/api/v1/workouts/{id}", "404"))
	if got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

// TestCORSHeaders verifies that CORS headers are set on responses.
func TestCORSHeaders(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q, want *", got)
	}
}

// TestCORSPreflight verifies that OPTIONS requests get 204 with CORS headers.
func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called for OPTIONS")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
