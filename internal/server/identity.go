package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/claude/fittrack/internal/logging"
	"github.com/google/uuid"
	"tailscale.com/client/local"
	"tailscale.com/client/tailscale/apitype"
)

// ErrNotAuthenticated is returned when a request carries no identity.
var ErrNotAuthenticated = errors.New("not authenticated")

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// UserInfo is the caller as reported by the identity source.
type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
}

type whoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// SetTailscale resolves callers through the tailnet. It takes precedence over
// the dev user.
func (s *Server) SetTailscale(lc *local.Client) {
	s.whois = lc
}

// SetDevUser makes every request act as login. Used when Tailscale is off.
func (s *Server) SetDevUser(login string) {
	s.devUser = login
}

// identity resolves the caller, maps the login to a user row and stores both
// in the request context. Requests without an identity get 401.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := s.resolveCaller(r)
		if err != nil {
			s.log.WarnContext(r.Context(), "unidentified request", "remote_addr", r.RemoteAddr, "error", err)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrNotAuthenticated.Error()})
			return
		}

		u, err := s.store.GetOrCreateUser(r.Context(), info.Login, info.DisplayName)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		info.ID = u.ID
		if info.DisplayName == "" {
			info.DisplayName = u.DisplayName
		}

		ctx := logging.WithAttrs(r.Context(), slog.String("user_id", u.ID.String()))
		ctx = context.WithValue(ctx, userIDKey, u.ID)
		ctx = context.WithValue(ctx, userInfoKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveCaller(r *http.Request) (UserInfo, error) {
	if s.whois != nil {
		who, err := s.whois.WhoIs(r.Context(), r.RemoteAddr)
		if err != nil {
			return UserInfo{}, err
		}
		if who.UserProfile == nil || who.UserProfile.LoginName == "" {
			return UserInfo{}, ErrNotAuthenticated
		}
		return UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}, nil
	}
	if s.devUser != "" {
		return UserInfo{Login: s.devUser, DisplayName: s.devUser}, nil
	}
	return UserInfo{}, ErrNotAuthenticated
}

// UserID returns the caller's id stored by the identity middleware.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

func userInfoFromContext(r *http.Request) (UserInfo, bool) {
	info, ok := r.Context().Value(userInfoKey).(UserInfo)
	return info, ok
}

// mustUserID writes 401 and returns false when the request has no identity.
func mustUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrNotAuthenticated.Error()})
	}
	return id, ok
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	info, ok := userInfoFromContext(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrNotAuthenticated.Error()})
		return
	}
	writeJSON(w, http.StatusOK, info)
}
