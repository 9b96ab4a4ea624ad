package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/logging"
	"github.com/bluejays/teamtrack/internal/team"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

type ctxKey int

const (
	uidKey ctxKey = iota
	tokenKey
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	// Public
	r.HandleFunc("/auth", s.authLimit.limit(s.handleAuth)).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// Protected
	r.HandleFunc("/logout", s.withAuth(s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/profile", s.withAuth(s.handleGetProfile)).Methods(http.MethodGet)
	r.HandleFunc("/profile", s.withAuth(s.handleUpdateProfile)).Methods(http.MethodPatch)
	r.HandleFunc("/coach", s.withAuth(s.coachLimit.limit(s.handleCoach))).Methods(http.MethodPost)
	r.HandleFunc("/weights", s.withAuth(s.handleListWeights)).Methods(http.MethodGet)
	r.HandleFunc("/weights", s.withAuth(s.handleLogWeight)).Methods(http.MethodPost)
	r.HandleFunc("/focus", s.withAuth(s.handleListFocus)).Methods(http.MethodGet)
	r.HandleFunc("/roster", s.withAuth(s.handleRoster)).Methods(http.MethodGet)
	r.HandleFunc("/roster/{uid}/weights", s.withAuth(s.handleMemberWeights)).Methods(http.MethodGet)
	r.HandleFunc("/roster/{uid}/focus", s.withAuth(s.handleMemberFocus)).Methods(http.MethodGet)

	r.HandleFunc("/drill", s.withAuth(s.handleDrill)).Methods(http.MethodGet)
	r.HandleFunc("/drill/start", s.withAuth(s.handleDrillStart)).Methods(http.MethodPost)
	r.HandleFunc("/drill/tap", s.withAuth(s.handleDrillTap)).Methods(http.MethodPost)
	r.HandleFunc("/drill/restart", s.withAuth(s.handleDrillRestart)).Methods(http.MethodPost)
	r.HandleFunc("/drill/live", s.withAuth(s.handleDrillLive)).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleStatic).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// withAuth resolves the bearer token to a member. The WebSocket endpoint may
// pass the token as ?token= since browsers can't set headers on upgrade.
func (s *Server) withAuth(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		uid, ok := s.sessions.Lookup(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), uidKey, uid)
		ctx = context.WithValue(ctx, tokenKey, token)
		handler(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(h, prefix) {
			return "", false
		}
		return strings.TrimPrefix(h, prefix), true
	}
	if r.URL.Path == "/drill/live" {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, true
		}
	}
	return "", false
}

func uidFrom(r *http.Request) string {
	uid, _ := r.Context().Value(uidKey).(string)
	return uid
}

func tokenFrom(r *http.Request) string {
	token, _ := r.Context().Value(tokenKey).(string)
	return token
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps team and drill errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, team.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, team.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, team.ErrBadPasscode):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, team.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, team.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, drill.ErrSessionClosed):
		writeError(w, http.StatusConflict, "drill session closed")
	case errors.Is(err, context.Canceled):
		// Client went away.
	default:
		logging.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a bounded JSON body into v, writing 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// limitParam parses ?limit=, defaulting to 0 (all).
func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
