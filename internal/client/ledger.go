package client

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

//go:generate go run go.uber.org/mock/mockgen -source=ledger.go -destination=mocks/mock_renderer.go -package=mocks

// Renderer is the display surface the ledger drives. The ledger decides
// which calls happen and in what order, so implementations never need their
// own bookkeeping to stay idempotent under echo replays.
type Renderer interface {
	// RenderPending shows an optimistic bubble for a message just sent.
	RenderPending(msg Message)
	// ConfirmRender replaces the pending bubble tempID with the
	// authoritative message, server id and timestamp included.
	ConfirmRender(tempID string, msg Message)
	// RenderRemote shows a message from another participant exactly once.
	RenderRemote(msg Message)
	// MarkFailed flags a pending bubble whose send failed.
	MarkFailed(tempID string)
}

// Status of a tracked message.
type Status string

// Message delivery states. Pending is the only state that transitions;
// confirmed and failed are terminal.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Message is the ledger's view of one chat message. ID is a locally
// assigned temp id while pending and the server id once confirmed.
type Message struct {
	ID         string
	SenderID   string
	SenderName string
	Text       string
	Timestamp  time.Time
	Status     Status
}

type pendingEntry struct {
	msg    Message
	sentAt time.Time
}

// Ledger implements optimistic delivery: locally sent messages render
// immediately as pending and are reconciled against the server echo when it
// arrives. Reconcile is idempotent per server message id, so replayed
// echoes render nothing. Entries that never receive an echo stay pending;
// there is no timeout that flips them to failed on its own.
type Ledger struct {
	log      *slog.Logger
	session  Session
	window   time.Duration
	renderer Renderer

	mu      sync.Mutex
	pending map[string]pendingEntry
	seen    map[string]struct{}
}

// NewLedger builds a ledger for one session. window bounds how far an echo
// timestamp may sit from the local send time and still confirm the pending
// entry; window <= 0 falls back to DefaultConfirmWindow.
func NewLedger(log *slog.Logger, session Session, window time.Duration, renderer Renderer) *Ledger {
	if window <= 0 {
		window = DefaultConfirmWindow
	}
	return &Ledger{
		log:      log,
		session:  session,
		window:   window,
		renderer: renderer,
		pending:  make(map[string]pendingEntry),
		seen:     make(map[string]struct{}),
	}
}

// Track records a locally sent message and renders its optimistic bubble.
// The returned message carries the temp id callers need to correlate a
// later Fail.
func (l *Ledger) Track(text string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	msg := Message{
		ID:         uuid.NewString(),
		SenderID:   l.session.UserID,
		SenderName: l.session.UserName,
		Text:       text,
		Timestamp:  now,
		Status:     StatusPending,
	}
	l.pending[msg.ID] = pendingEntry{msg: msg, sentAt: now}
	l.renderer.RenderPending(msg)
	return msg
}

// Fail moves a pending message to its terminal failed state. Unknown or
// already reconciled ids are ignored.
func (l *Ledger) Fail(tempID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[tempID]; !ok {
		return
	}
	delete(l.pending, tempID)
	l.renderer.MarkFailed(tempID)
}

// Reconcile folds one server message frame into the ledger. The first
// sighting of an id either confirms the oldest matching pending entry (same
// sender, same text, timestamps within the window) or renders as a remote
// message; any replay of that id renders nothing.
func (l *Ledger) Reconcile(frame wire.MessageFrame) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[frame.MessageID]; dup {
		l.log.Debug("ignoring duplicate echo", "message_id", frame.MessageID)
		return
	}
	l.seen[frame.MessageID] = struct{}{}

	msg := Message{
		ID:         frame.MessageID,
		SenderID:   frame.UserID,
		SenderName: frame.UserName,
		Text:       frame.Text,
		Timestamp:  frame.Timestamp,
		Status:     StatusConfirmed,
	}

	if frame.UserID == l.session.UserID {
		if tempID, ok := l.matchPending(frame); ok {
			delete(l.pending, tempID)
			l.renderer.ConfirmRender(tempID, msg)
			return
		}
	}
	l.renderer.RenderRemote(msg)
}

// matchPending finds the oldest pending entry the echo can confirm.
func (l *Ledger) matchPending(frame wire.MessageFrame) (string, bool) {
	text := strings.TrimSpace(frame.Text)
	best := ""
	var bestAt time.Time
	for id, entry := range l.pending {
		if strings.TrimSpace(entry.msg.Text) != text {
			continue
		}
		if delta := frame.Timestamp.Sub(entry.sentAt); delta < -l.window || delta > l.window {
			continue
		}
		if best == "" || entry.sentAt.Before(bestAt) {
			best = id
			bestAt = entry.sentAt
		}
	}
	return best, best != ""
}

// Pending lists messages still awaiting their echo, oldest first.
func (l *Ledger) Pending() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := lo.Values(l.pending)
	sort.Slice(entries, func(i, j int) bool { return entries[i].sentAt.Before(entries[j].sentAt) })
	return lo.Map(entries, func(e pendingEntry, _ int) Message { return e.msg })
}
