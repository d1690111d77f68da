package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

// inbound carries a validated client message into the hub loop together with
// the connection that produced it.
type inbound struct {
	sender *Conn
	msg    wire.ClientMessage
}

// Hub owns the set of live connections and serializes every membership
// change and broadcast through a single goroutine. At most one connection is
// live per user id; a newer connection for the same id replaces the older
// one.
type Hub struct {
	log *slog.Logger
	cfg Config

	register   chan *Conn
	unregister chan *Conn
	inbound    chan inbound

	// mu guards clients and the closed, closeCode and closeReason fields of
	// every Conn in it.
	mu      sync.RWMutex
	clients map[string]*Conn

	history  *history
	messages *windowLimiter

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHub creates a hub for the given configuration. Run must be started in
// its own goroutine before connections are admitted.
func NewHub(cfg Config, log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:        log,
		cfg:        cfg,
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		inbound:    make(chan inbound, 64),
		clients:    make(map[string]*Conn),
		history:    newHistory(cfg.HistoryLimit),
		messages:   newWindowLimiter(cfg.MessagesPerMinute, admissionWindow),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run processes registrations, departures and message fan-out until Stop or
// Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case conn := <-h.register:
			h.admit(conn)
		case conn := <-h.unregister:
			h.drop(conn)
		case in := <-h.inbound:
			h.fanOutMessage(in)
		case <-h.ctx.Done():
			h.shutdownClients()
			return
		}
	}
}

// Admit hands a new connection to the hub loop. It fails once shutdown has
// begun so the handler can refuse the socket instead of leaking it.
func (h *Hub) Admit(conn *Conn) error {
	select {
	case h.register <- conn:
		return nil
	case <-h.ctx.Done():
		return fmt.Errorf("hub is shutting down")
	}
}

// submit queues a validated client message for fan-out. The message is
// dropped when the hub is shutting down.
func (h *Hub) submit(sender *Conn, msg wire.ClientMessage) {
	select {
	case h.inbound <- inbound{sender: sender, msg: msg}:
	case <-h.ctx.Done():
	}
}

// OnlineCount reports how many users currently hold a live connection.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Recent returns up to limit of the most recent broadcast message frames,
// oldest first, in their encoded form.
func (h *Hub) Recent(limit int) [][]byte {
	return h.history.recent(limit)
}

// admit installs a connection as the live one for its user id. An existing
// connection for the same id is closed with a session-replaced code, and no
// presence frames are emitted because the membership set did not change.
func (h *Hub) admit(conn *Conn) {
	h.mu.Lock()
	prior := h.clients[conn.userID]
	h.clients[conn.userID] = conn
	count := len(h.clients)
	if prior != nil {
		prior.closed = true
		prior.closeCode = wire.CloseSessionReplaced
		prior.closeReason = "session replaced by a newer connection"
	}
	h.mu.Unlock()

	if prior != nil {
		close(prior.send)
		h.log.Info("session replaced",
			"user_id", conn.userID, "old_addr", prior.addr, "new_addr", conn.addr)
	}

	conn.start()
	h.log.Info("client connected", "user_id", conn.userID, "addr", conn.addr, "online", count)

	if prior == nil {
		h.broadcastPresence(wire.TypeUserJoined, conn.userID, count)
	}
}

// drop removes a connection if it is still the live one for its user id. A
// connection that was already replaced leaves the newer session intact.
func (h *Hub) drop(conn *Conn) {
	h.mu.Lock()
	if h.clients[conn.userID] != conn {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn.userID)
	conn.closed = true
	count := len(h.clients)
	h.mu.Unlock()

	close(conn.send)
	h.messages.forget(conn.userID)
	h.log.Info("client disconnected", "user_id", conn.userID, "addr", conn.addr, "online", count)
	h.broadcastPresence(wire.TypeUserLeft, conn.userID, count)
}

// fanOutMessage stamps an accepted message with its server-assigned identity
// and broadcasts it to every connection, including the sender.
func (h *Hub) fanOutMessage(in inbound) {
	name := in.msg.UserName
	if name == "" {
		name = in.sender.userID
	}
	frame := wire.MessageFrame{
		MessageID:  uuid.NewString(),
		UserID:     in.sender.userID,
		UserName:   name,
		Department: in.msg.Department,
		Bio:        in.msg.Bio,
		Text:       in.msg.Text,
		Timestamp:  time.Now().UTC(),
	}

	data, err := wire.Encode(frame)
	if err != nil {
		h.log.Error("encoding message frame", "error", err)
		return
	}
	h.history.add(data)
	h.fanOut(data)
}

// broadcastPresence announces a membership change to every connection,
// including the user it concerns, carrying the authoritative online count.
func (h *Hub) broadcastPresence(kind wire.FrameType, userID string, count int) {
	verb := "joined"
	if kind == wire.TypeUserLeft {
		verb = "left"
	}
	info := wire.PresenceInfo{
		MessageID:   uuid.NewString(),
		UserID:      userID,
		Text:        fmt.Sprintf("User %s %s the chat", userID, verb),
		Timestamp:   time.Now().UTC(),
		OnlineCount: count,
	}

	var frame wire.Frame
	if kind == wire.TypeUserLeft {
		frame = wire.LeftFrame{PresenceInfo: info}
	} else {
		frame = wire.JoinedFrame{PresenceInfo: info}
	}

	data, err := wire.Encode(frame)
	if err != nil {
		h.log.Error("encoding presence frame", "error", err)
		return
	}
	h.fanOut(data)
}

// fanOut delivers an encoded frame to every live connection. Connections
// whose send buffer is full are dropped rather than allowed to stall the
// rest of the room.
func (h *Hub) fanOut(data []byte) {
	h.mu.RLock()
	conns := lo.Values(h.clients)
	h.mu.RUnlock()

	for _, conn := range conns {
		if !h.safeSend(conn, data) {
			h.log.Warn("dropping unresponsive client", "user_id", conn.userID, "addr", conn.addr)
			h.drop(conn)
		}
	}
}

// safeSend attempts a non-blocking delivery to one connection. It reports
// false when the connection is closed or its buffer is full. The recover
// covers the window between the closed check and a concurrent channel close.
func (h *Hub) safeSend(conn *Conn, data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	h.mu.RLock()
	defer h.mu.RUnlock()

	if conn.closed {
		return false
	}
	select {
	case conn.send <- data:
		return true
	default:
		return false
	}
}

// shutdownClients closes every connection's send channel so the write pumps
// deliver a normal close frame and exit. Clients treat the normal close as
// deliberate and do not reconnect.
func (h *Hub) shutdownClients() {
	h.mu.Lock()
	conns := lo.Values(h.clients)
	for _, conn := range conns {
		conn.closed = true
		delete(h.clients, conn.userID)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		close(conn.send)
	}
	if len(conns) > 0 {
		h.log.Info("closed all client connections", "count", len(conns))
	}
}

// Stop signals the hub loop to terminate. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(h.cancel)
}

// Shutdown stops the hub and waits for the loop and every pump goroutine to
// finish, giving up after timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.Stop()

	finished := make(chan struct{})
	go func() {
		<-h.done
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.log.Info("hub shutdown complete")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("hub shutdown timed out after %v", timeout)
	}
}
