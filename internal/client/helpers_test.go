package client_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nightingale-hq/chatwire/internal/client"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustSession(t *testing.T, userID string) client.Session {
	t.Helper()
	session, err := client.NewSession(userID, "", "", "")
	require.NoError(t, err)
	return session
}

// nextEvent drains events until one of the wanted kind arrives, failing the
// test after timeout.
func nextEvent(t *testing.T, events <-chan client.Event, kind client.Kind, timeout time.Duration) client.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed while waiting for %q", kind)
			}
			if evt.Kind() == kind {
				return evt
			}
		case <-deadline:
			t.Fatalf("no %q event within %v", kind, timeout)
		}
	}
}

// expectNoEvent asserts that no event of the given kind arrives within wait.
func expectNoEvent(t *testing.T, events <-chan client.Event, kind client.Kind, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Kind() == kind {
				t.Fatalf("unexpected %q event: %#v", kind, evt)
			}
		case <-deadline:
			return
		}
	}
}

// recordingRenderer captures every display instruction for later
// assertions. All methods are safe for concurrent use.
type recordingRenderer struct {
	mu        sync.Mutex
	pending   []client.Message
	confirmed []confirmation
	remote    []client.Message
	failed    []string
}

type confirmation struct {
	tempID string
	msg    client.Message
}

func (r *recordingRenderer) RenderPending(msg client.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, msg)
}

func (r *recordingRenderer) ConfirmRender(tempID string, msg client.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, confirmation{tempID: tempID, msg: msg})
}

func (r *recordingRenderer) RenderRemote(msg client.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remote = append(r.remote, msg)
}

func (r *recordingRenderer) MarkFailed(tempID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, tempID)
}

func (r *recordingRenderer) snapshot() (pending []client.Message, confirmed []confirmation, remote []client.Message, failed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]client.Message(nil), r.pending...),
		append([]confirmation(nil), r.confirmed...),
		append([]client.Message(nil), r.remote...),
		append([]string(nil), r.failed...)
}
