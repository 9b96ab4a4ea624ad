package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// latestSnapshot holds at most one pending snapshot. Offers replace a stale
// value so the drill loop never waits on a slow client.
type latestSnapshot chan drill.Snapshot

func (l latestSnapshot) offer(snap drill.Snapshot) {
	for {
		select {
		case l <- snap:
			return
		default:
		}
		select {
		case <-l:
		default:
		}
	}
}

// handleDrillLive handles GET /drill/live, pushing a drill.View for the
// current state and then one per change until the client leaves, the
// member's drill session ends, or the server stops.
func (s *Server) handleDrillLive(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	latest := make(latestSnapshot, 1)
	initial, unsubscribe, err := sess.Subscribe(r.Context(), latest.offer)
	if err != nil {
		closeWith(conn, websocket.CloseGoingAway, "drill session closed")
		return
	}
	defer unsubscribe()

	// Changes after Subscribe queue in latest, so the initial view goes
	// out first.
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(drill.RenderSnapshot(initial)); err != nil {
		return
	}

	gone := make(chan struct{})
	go readPump(conn, gone)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap := <-latest:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(drill.RenderSnapshot(snap)); err != nil {
				logging.Debug("live view write failed", "uid", uidFrom(r), "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-sess.Done():
			closeWith(conn, websocket.CloseNormalClosure, "drill session ended")
			return
		case <-s.stopping:
			closeWith(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// readPump discards client messages, keeping the read deadline fresh on
// pongs, and closes gone when the connection fails.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
