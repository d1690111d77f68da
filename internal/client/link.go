package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

// LinkState is the lifecycle position of a transport link.
type LinkState int32

// Link lifecycle states. Reconnecting is entered from an abnormal closure
// or a failed dial and leads back to Open on success; Closed is terminal
// for the sequence.
const (
	StateIdle LinkState = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateReconnecting
)

func (s LinkState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Conn is the slice of *websocket.Conn the link drives. Narrowing it keeps
// reconnect behavior testable without a network.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens one socket. The production implementation wraps
// websocket.Dialer; tests substitute scripted outcomes.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

type wsDialer struct {
	dialer *websocket.Dialer
}

func newWSDialer(handshakeTimeout time.Duration) wsDialer {
	return wsDialer{dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout}}
}

func (d wsDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// Link owns one WebSocket connection sequence: Idle through Open, reconnect
// cycles on abnormal closure, and a terminal Closed. All socket and timer
// state is confined to the run loop goroutine; the exported methods talk to
// it over channels, so callers get synchronous answers without sharing any
// socket state.
type Link struct {
	cfg    Config
	url    string
	log    *slog.Logger
	bus    *Bus
	dialer Dialer

	mu    sync.Mutex
	state LinkState
	seq   *sequence
}

// sequence is the channel plumbing for one Connect-to-Closed run.
type sequence struct {
	sends       chan sendCmd
	disconnects chan struct{}
	done        chan struct{}
}

type sendCmd struct {
	payload []byte
	reply   chan error
}

type dialResult struct {
	conn Conn
	err  error
}

type readResult struct {
	data []byte
	err  error
}

// NewLink builds a link for one endpoint. cfg must already be sanitized;
// url is the full websocket endpoint for the session.
func NewLink(cfg Config, url string, bus *Bus, log *slog.Logger) *Link {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = newWSDialer(cfg.HandshakeTimeout)
	}
	return &Link{
		cfg:    cfg,
		url:    url,
		log:    log,
		bus:    bus,
		dialer: dialer,
		state:  StateIdle,
	}
}

// State returns the link's current lifecycle state.
func (l *Link) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Link) setState(s LinkState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Connect starts the connection sequence. It fails with ErrSessionActive if
// one is already running; otherwise it returns immediately and the outcome
// arrives as bus events. Cancelling ctx tears the sequence down the same
// way a Disconnect would.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seq != nil {
		select {
		case <-l.seq.done:
			// previous sequence finished; start a fresh one
		default:
			return ErrSessionActive
		}
	}

	seq := &sequence{
		sends:       make(chan sendCmd),
		disconnects: make(chan struct{}),
		done:        make(chan struct{}),
	}
	l.seq = seq
	l.state = StateConnecting
	go l.run(ctx, seq)
	return nil
}

// Send writes one text frame. It fails with ErrNotOpen unless the link is
// Open at the moment of the write; nothing is ever queued for later
// delivery.
func (l *Link) Send(payload []byte) error {
	l.mu.Lock()
	seq := l.seq
	state := l.state
	l.mu.Unlock()

	if seq == nil || state != StateOpen {
		return ErrNotOpen
	}

	cmd := sendCmd{payload: payload, reply: make(chan error, 1)}
	select {
	case seq.sends <- cmd:
	case <-seq.done:
		return ErrNotOpen
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-seq.done:
		return ErrNotOpen
	}
}

// Disconnect ends the sequence deliberately: an armed reconnect timer is
// cancelled, the socket (if open) is closed with a normal closure frame,
// and the link lands in Closed before Disconnect returns. Disconnecting an
// idle or finished link is a no-op.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	seq := l.seq
	l.mu.Unlock()

	if seq == nil {
		return nil
	}

	select {
	case seq.disconnects <- struct{}{}:
	case <-seq.done:
		return nil
	}
	<-seq.done
	return nil
}

// run is the sequence's event loop and the only goroutine that touches the
// socket, the retry timer or the attempt counter.
func (l *Link) run(ctx context.Context, seq *sequence) {
	defer close(seq.done)

	var (
		conn       Conn
		reads      chan readResult
		attempt    int
		retryTimer *time.Timer
		retryC     <-chan time.Time
		dials      chan dialResult
		dialCancel context.CancelFunc
	)

	stopRetry := func() {
		if retryTimer != nil {
			retryTimer.Stop()
			retryTimer = nil
			retryC = nil
		}
	}

	// finishDial resolves an in-flight dial during teardown so the dial
	// goroutine cannot leak an open socket.
	finishDial := func() {
		if dials == nil {
			return
		}
		dialCancel()
		if res := <-dials; res.conn != nil {
			res.conn.Close()
		}
		dials = nil
		dialCancel = nil
	}

	startDial := func() {
		dctx, cancel := context.WithTimeout(ctx, l.cfg.HandshakeTimeout)
		dialCancel = cancel
		ch := make(chan dialResult, 1)
		dials = ch
		go func() {
			conn, err := l.dialer.DialContext(dctx, l.url)
			ch <- dialResult{conn: conn, err: err}
		}()
	}

	closeConn := func() {
		if conn != nil {
			conn.Close()
			conn = nil
			reads = nil
		}
	}

	// scheduleRetry arms the backoff timer for the next attempt, doubling
	// the delay each time. It reports false once the cap is exhausted.
	scheduleRetry := func() bool {
		attempt++
		if attempt > l.cfg.MaxAttempts {
			l.log.Warn("reconnect attempts exhausted", "attempts", l.cfg.MaxAttempts)
			l.setState(StateClosed)
			l.bus.Trigger(ReconnectFailed{Attempts: l.cfg.MaxAttempts})
			return false
		}
		delay := l.cfg.BackoffBase << (attempt - 1)
		l.setState(StateReconnecting)
		l.log.Info("scheduling reconnect", "attempt", attempt, "delay", delay)
		l.bus.Trigger(Reconnecting{Attempt: attempt, Delay: delay})
		retryTimer = time.NewTimer(delay)
		retryC = retryTimer.C
		return true
	}

	teardown := func(reason string) {
		stopRetry()
		finishDial()
		if conn != nil {
			l.setState(StateClosing)
			l.writeClose(conn)
			closeConn()
		}
		l.setState(StateClosed)
		l.bus.Trigger(Disconnected{Code: wire.CloseNormal, Reason: reason, Deliberate: true})
	}

	startDial()

	for {
		select {
		case <-ctx.Done():
			teardown("context canceled")
			return

		case res := <-dials:
			dials = nil
			dialCancel()
			dialCancel = nil
			if res.err != nil {
				l.log.Warn("dial failed", "url", l.url, "error", res.err)
				l.bus.Trigger(LinkError{Err: res.err})
				if !scheduleRetry() {
					return
				}
				continue
			}
			conn = res.conn
			reads = startReader(conn, seq.done)
			attempt = 0
			l.setState(StateOpen)
			l.log.Info("link open", "url", l.url)
			l.bus.Trigger(Connected{URL: l.url})

		case res := <-reads:
			if res.err == nil {
				l.dispatch(res.data)
				continue
			}
			code, reason := closeDetails(res.err)
			closeConn()
			terminal := wire.TerminalCloseCode(code)
			if terminal {
				l.setState(StateClosed)
			}
			l.log.Info("link closed by peer", "code", code, "reason", reason)
			l.bus.Trigger(Disconnected{Code: code, Reason: reason, Deliberate: code == wire.CloseNormal})
			if terminal {
				if code == wire.CloseRateLimited {
					l.bus.Trigger(RateLimited{Notice: reason})
				}
				return
			}
			if !scheduleRetry() {
				return
			}

		case <-retryC:
			retryTimer = nil
			retryC = nil
			l.setState(StateConnecting)
			l.log.Info("reconnecting", "attempt", attempt)
			startDial()

		case cmd := <-seq.sends:
			if conn == nil || l.State() != StateOpen {
				cmd.reply <- ErrNotOpen
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout))
			err := conn.WriteMessage(websocket.TextMessage, cmd.payload)
			if err != nil {
				l.log.Warn("frame write failed", "error", err)
			}
			cmd.reply <- err

		case <-seq.disconnects:
			teardown("client disconnect")
			return
		}
	}
}

// writeClose sends the normal closure frame before tearing the socket down,
// mirroring the server's graceful shutdown handshake.
func (l *Link) writeClose(conn Conn) {
	conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		l.log.Debug("close frame write failed", "error", err)
	}
}

// dispatch decodes one inbound frame and publishes it on the bus. A frame
// the protocol does not admit is dropped without disturbing the connection.
func (l *Link) dispatch(data []byte) {
	frame, err := wire.Decode(data)
	if err != nil {
		l.log.Warn("dropping malformed frame", "error", err)
		l.bus.Trigger(ProtocolViolation{Err: err})
		return
	}

	switch fr := frame.(type) {
	case wire.MessageFrame:
		l.bus.Trigger(MessageReceived{Frame: fr})
	case wire.JoinedFrame:
		l.bus.Trigger(UserJoined{Frame: fr})
	case wire.LeftFrame:
		l.bus.Trigger(UserLeft{Frame: fr})
	case wire.ErrorFrame:
		if fr.Code == wire.ErrCodeRateLimited {
			l.bus.Trigger(RateLimited{Notice: fr.Text})
			return
		}
		l.bus.Trigger(LinkError{Err: fmt.Errorf("server error %s: %s", fr.Code, fr.Text)})
	}
}

// startReader pumps inbound frames from conn until the first read error. It
// parks on done when the loop has already exited, so it never leaks.
func startReader(conn Conn, done <-chan struct{}) chan readResult {
	reads := make(chan readResult)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			select {
			case reads <- readResult{data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return reads
}

// closeDetails extracts the close code and reason from a read error. Errors
// that are not close frames (network failures, timeouts) classify as
// abnormal closure.
func closeDetails(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, closeErr.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
