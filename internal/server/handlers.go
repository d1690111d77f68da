package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// Server carries the HTTP surface: the WebSocket endpoint plus the read
// endpoints for presence, history and health.
type Server struct {
	log      *slog.Logger
	cfg      Config
	hub      *Hub
	connects *windowLimiter
	upgrader websocket.Upgrader
}

// NewServer wires the handlers around a hub.
func NewServer(cfg Config, hub *Hub, log *slog.Logger) *Server {
	origins := newOriginChecker(cfg.Origins())
	return &Server{
		log:      log,
		cfg:      cfg,
		hub:      hub,
		connects: newWindowLimiter(cfg.ConnectsPerMinute, admissionWindow),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

// handleSocket upgrades the request and runs admission. Rejections happen
// after the upgrade with a coded close frame so clients can tell apart an
// invalid id, an exhausted connection budget and a replaced session.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	if !wire.ValidUserID(userID) {
		s.refuse(ws, wire.CloseInvalidUserID,
			"user id must be 1-100 characters of letters, digits, underscore or hyphen")
		return
	}

	if !s.connects.allow(originKey(r)) {
		s.refuse(ws, wire.CloseRateLimited, "connection rate limit exceeded, try again later")
		return
	}

	conn := newConn(s.hub, ws, userID, s.log)
	if err := s.hub.Admit(conn); err != nil {
		s.refuse(ws, websocket.CloseGoingAway, "server is shutting down")
	}
}

// refuse closes a just-upgraded socket with a specific close code.
func (s *Server) refuse(ws *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = ws.Close()
}

// originKey picks the admission bucket for a connection attempt: the
// normalized Origin header when present, otherwise the peer's host address.
func originKey(r *http.Request) string {
	if origin := normalizeOrigin(r.Header.Get("Origin")); origin != "" {
		return origin
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// handleOnline reports the authoritative number of connected users.
func (s *Server) handleOnline(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]int{"count": s.hub.OnlineCount()})
}

// handleRecent returns the newest broadcast messages, oldest first. The
// limit parameter caps how many, within a server-side maximum.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRecentLimit)
	}

	frames := s.hub.Recent(limit)
	s.writeJSON(w, lo.Map(frames, func(frame []byte, _ int) json.RawMessage {
		return json.RawMessage(frame)
	}))
}

// handleHealth answers liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response", "error", err)
	}
}
