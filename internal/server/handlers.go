package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bluejays/teamtrack/internal/auth"
	"github.com/bluejays/teamtrack/internal/logging"
	"github.com/bluejays/teamtrack/internal/team"
	"github.com/bluejays/teamtrack/web"
)

type authRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Guest    bool   `json:"guest"`
}

type authResponse struct {
	Token   string       `json:"token"`
	Profile team.Profile `json:"profile"`
}

// handleAuth handles POST /auth. Members sign in with their email (and the
// team password when one is configured) or as a guest.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ip := extractIP(r)

	if req.Guest && !s.cfg.AllowGuests {
		writeError(w, http.StatusForbidden, "guest sign-in is disabled")
		return
	}

	if s.cfg.TeamPasswordHash != "" {
		ok, err := auth.VerifySecret(req.Password, s.cfg.TeamPasswordHash)
		if err != nil {
			logging.Error("failed to verify team password", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			s.authLimit.recordFailure(ip)
			writeError(w, http.StatusUnauthorized, "invalid password")
			return
		}
	}

	var (
		p   team.Profile
		err error
	)
	if req.Guest {
		p, err = s.team.SignInGuest(r.Context())
	} else {
		p, err = s.team.SignIn(r.Context(), req.Email, req.Name)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.authLimit.recordSuccess(ip)

	token, err := s.sessions.Issue(p.UID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, Profile: p})
}

// handleLogout revokes the token and, if it was the member's last, ends
// their drill.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	uid, _ := s.sessions.Revoke(tokenFrom(r))
	if uid != "" && !s.sessions.Active(uid) {
		s.drills.close(uid)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.team.Profile(r.Context(), uidFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u team.Update
	if !decodeJSON(w, r, &u) {
		return
	}
	p, err := s.team.UpdateProfile(r.Context(), uidFrom(r), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type coachRequest struct {
	Passcode string `json:"passcode"`
}

// handleCoach handles POST /coach, promoting the caller with the passcode.
func (s *Server) handleCoach(w http.ResponseWriter, r *http.Request) {
	var req coachRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ip := extractIP(r)

	p, err := s.team.PromoteCoach(r.Context(), uidFrom(r), req.Passcode)
	if err != nil {
		if errors.Is(err, team.ErrBadPasscode) {
			s.coachLimit.recordFailure(ip)
		}
		writeServiceError(w, r, err)
		return
	}
	s.coachLimit.recordSuccess(ip)
	writeJSON(w, http.StatusOK, p)
}

type weightRequest struct {
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes"`
}

func (s *Server) handleLogWeight(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	log, err := s.team.LogWeight(r.Context(), uidFrom(r), req.Weight, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

func (s *Server) handleListWeights(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	logs, err := s.team.Weights(r.Context(), uidFrom(r), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleListFocus(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	logs, err := s.team.FocusHistory(r.Context(), uidFrom(r), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	entries, err := s.team.Roster(r.Context(), uidFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMemberWeights(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	logs, err := s.team.MemberWeights(r.Context(), uidFrom(r), mux.Vars(r)["uid"], limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleMemberFocus(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	logs, err := s.team.MemberFocus(r.Context(), uidFrom(r), mux.Vars(r)["uid"], limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type healthResponse struct {
	Status string `json:"status"`
	Drills int    `json:"drills"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Drills: s.drills.count()})
}

// handleStatic serves the browser client's entry page.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, s.assets, web.IndexFile)
}
