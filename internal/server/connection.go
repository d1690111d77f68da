package server

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

const (
	// writeWait bounds how long a single frame write may take.
	writeWait = 10 * time.Second

	// pongWait is how long the reader tolerates silence before assuming the
	// peer is gone.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings refresh the read
	// deadline in time.
	pingPeriod = (pongWait * 9) / 10
)

// Conn is one accepted WebSocket session bound to a user id. Its read pump
// feeds the hub and its write pump drains the send channel; both exit when
// the channel closes or the socket fails.
type Conn struct {
	hub *Hub
	ws  *websocket.Conn
	log *slog.Logger

	send   chan []byte
	userID string
	addr   string

	// closed, closeCode and closeReason are guarded by hub.mu. closeCode
	// selects the close frame the write pump delivers once send drains.
	closed      bool
	closeCode   int
	closeReason string
}

// newConn wraps an upgraded socket for the given user.
func newConn(hub *Hub, ws *websocket.Conn, userID string, log *slog.Logger) *Conn {
	return &Conn{
		hub:       hub,
		ws:        ws,
		log:       log,
		send:      make(chan []byte, hub.cfg.SendBuffer),
		userID:    userID,
		addr:      ws.RemoteAddr().String(),
		closeCode: wire.CloseNormal,
	}
}

// start launches the read and write pumps. Called by the hub once the
// connection is registered.
func (c *Conn) start() {
	c.hub.wg.Add(2)
	go c.readPump()
	go c.writePump()
}

// readPump reads frames from the socket until it fails, enforcing the read
// limit and the pong deadline. On exit it hands the connection back to the
// hub for removal.
func (c *Conn) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		_ = c.ws.Close()
		c.hub.wg.Done()
	}()

	c.ws.SetReadLimit(c.hub.cfg.MaxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.logReadEnd(err)
			return
		}
		c.handleFrame(data)
	}
}

// handleFrame applies the message budget and frame validation in order. The
// budget is charged before decoding so malformed spam cannot dodge it.
func (c *Conn) handleFrame(data []byte) {
	if !c.hub.messages.allow(c.userID) {
		c.sendError(wire.ErrCodeRateLimited, "message rate limit exceeded, slow down")
		return
	}

	msg, err := wire.DecodeClientMessage(data)
	if err != nil {
		c.sendError(wire.ErrCodeInvalidFrame, "frame not understood")
		return
	}

	text, err := wire.ValidateText(msg.Text)
	if err != nil {
		c.sendError(wire.ErrCodeInvalidText, err.Error())
		return
	}
	msg.Text = text

	c.hub.submit(c, msg)
}

// sendError delivers an error frame to this connection only.
func (c *Conn) sendError(code, text string) {
	data, err := wire.Encode(wire.ErrorFrame{Code: code, Text: text})
	if err != nil {
		c.log.Error("encoding error frame", "error", err)
		return
	}
	if !c.hub.safeSend(c, data) {
		c.log.Debug("error frame not delivered", "user_id", c.userID, "code", code)
	}
}

// logReadEnd records why the reader stopped, at a level matching how
// unexpected the close was.
func (c *Conn) logReadEnd(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Warn("connection closed unexpectedly", "user_id", c.userID, "addr", c.addr, "error", err)
		return
	}
	c.log.Debug("connection closed", "user_id", c.userID, "addr", c.addr, "error", err)
}

// writePump drains the send channel onto the socket, one frame per message,
// and keeps the connection alive with periodic pings. When the channel
// closes it delivers the close frame chosen by the hub and exits.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		c.hub.wg.Done()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.writeClose()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("write failed", "user_id", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeClose sends the close frame recorded on the connection. The default
// is a normal close; replacement and shutdown set their own codes.
func (c *Conn) writeClose() {
	c.hub.mu.RLock()
	code, reason := c.closeCode, c.closeReason
	c.hub.mu.RUnlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
