package httpapi

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/example/rolo/internal/dispatch"
	"github.com/example/rolo/internal/observability"
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
		},
	}
}

// handleWS streams search progress and ride updates to the rider. The first
// message is a snapshot of the current booking.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "user_id", sess.UserID, "error", err)
		return
	}
	// The snapshot goes to this connection only, before the hub can write to it.
	if st, err := s.flows.Get(r.Context(), sess.UserID); err == nil && st.CurrentBooking != nil {
		snap := dispatch.Event{Type: dispatch.EventRideUpdated, RideID: st.CurrentBooking.ID, Ride: st.CurrentBooking}
		if err := conn.WriteJSON(snap); err != nil {
			s.logger.Warn("ws snapshot failed", "user_id", sess.UserID, "error", err)
			_ = conn.Close()
			return
		}
	}

	remove := s.hub.Add(sess.UserID, conn)
	observability.WSConnections.Inc()
	defer func() {
		remove()
		observability.WSConnections.Dec()
	}()

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
