package server

import (
	"errors"
	"net/http"
	"sync"

	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/logging"
)

// errSignedOut is returned by drillRegistry.get when uid holds no live token.
var errSignedOut = errors.New("member is signed out")

// drillRegistry holds one drill session per signed-in member.
type drillRegistry struct {
	opts     drill.Options
	recorder *recorder
	active   func(uid string) bool

	mu       sync.Mutex
	sessions map[string]*drill.Session
	closed   bool
}

func newDrillRegistry(opts drill.Options, rec *recorder, active func(uid string) bool) *drillRegistry {
	return &drillRegistry{
		opts:     opts,
		recorder: rec,
		active:   active,
		sessions: make(map[string]*drill.Session),
	}
}

// get returns uid's session, creating an idle one on first use. The
// liveness check runs under the registry lock so a logout that revokes the
// last token and then calls close cannot be overtaken by a late get.
func (d *drillRegistry) get(uid string) (*drill.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, drill.ErrSessionClosed
	}
	if s, ok := d.sessions[uid]; ok {
		return s, nil
	}
	if d.active != nil && !d.active(uid) {
		return nil, errSignedOut
	}

	opts := d.opts
	opts.Sink = d.recorder.sinkFor(uid)
	s := drill.NewSession(drill.NewMachine(opts))
	d.sessions[uid] = s
	logging.Debug("created drill session", "uid", uid)
	return s, nil
}

// close ends uid's session, if any. A running drill is abandoned without
// a result.
func (d *drillRegistry) close(uid string) {
	d.mu.Lock()
	s, ok := d.sessions[uid]
	delete(d.sessions, uid)
	d.mu.Unlock()

	if ok {
		s.Close()
		logging.Debug("closed drill session", "uid", uid)
	}
}

// closeAll ends every session and refuses new ones.
func (d *drillRegistry) closeAll() {
	d.mu.Lock()
	d.closed = true
	sessions := d.sessions
	d.sessions = make(map[string]*drill.Session)
	d.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (d *drillRegistry) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// session resolves the caller's drill session or writes an error.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*drill.Session, bool) {
	sess, err := s.drills.get(uidFrom(r))
	if errors.Is(err, errSignedOut) {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, sess *drill.Session) {
	view, err := sess.View(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDrill handles GET /drill.
func (s *Server) handleDrill(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeView(w, r, sess)
}

// handleDrillStart handles POST /drill/start. Starting a drill that is
// already running or finished leaves it as is.
func (s *Server) handleDrillStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Start(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writeView(w, r, sess)
}

type tapRequest struct {
	Number *int `json:"number"`
}

type tapResponse struct {
	Accepted bool       `json:"accepted"`
	View     drill.View `json:"view"`
}

// handleDrillTap handles POST /drill/tap. Wrong numbers are not errors; the
// response says whether the tap advanced the drill.
func (s *Server) handleDrillTap(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Number == nil {
		writeError(w, http.StatusBadRequest, "number is required")
		return
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	accepted, err := sess.Tap(r.Context(), *req.Number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view, err := sess.View(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tapResponse{Accepted: accepted, View: view})
}

// handleDrillRestart handles POST /drill/restart.
func (s *Server) handleDrillRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Restart(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writeView(w, r, sess)
}
