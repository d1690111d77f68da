package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

const countFetchTimeout = 2 * time.Second

// PresenceKind distinguishes join from leave transitions.
type PresenceKind string

// Presence transition kinds.
const (
	PresenceJoined PresenceKind = "joined"
	PresenceLeft   PresenceKind = "left"
)

// PresenceEvent is a display-ready presence change carrying the adopted
// online count.
type PresenceEvent struct {
	Kind        PresenceKind
	UserID      string
	Text        string
	OnlineCount int
}

// CountFetcher returns the authoritative online count from the server's
// companion read endpoint. The tracker falls back to it when a presence
// frame arrives without a count.
type CountFetcher interface {
	FetchOnlineCount(ctx context.Context) (int, error)
}

// Tracker keeps the client's view of how many connections are online. The
// count is always adopted from the server, never derived by counting local
// join and leave events, so replayed or missed frames cannot skew it.
type Tracker struct {
	log     *slog.Logger
	fetcher CountFetcher

	mu    sync.Mutex
	count int
}

// NewTracker returns a tracker starting at zero. fetcher may be nil, in
// which case a frame without a count leaves the last known value in place.
func NewTracker(log *slog.Logger, fetcher CountFetcher) *Tracker {
	return &Tracker{log: log, fetcher: fetcher}
}

// ApplyJoined folds a join notice into the tracker and returns the presence
// change for display.
func (t *Tracker) ApplyJoined(frame wire.JoinedFrame) PresenceEvent {
	return t.apply(PresenceJoined, frame.PresenceInfo)
}

// ApplyLeft folds a leave notice into the tracker.
func (t *Tracker) ApplyLeft(frame wire.LeftFrame) PresenceEvent {
	return t.apply(PresenceLeft, frame.PresenceInfo)
}

// apply adopts the frame's count when present and refetches when not. The
// refetch runs inline on the frame-processing path, but only servers that
// omit the count ever take it.
func (t *Tracker) apply(kind PresenceKind, info wire.PresenceInfo) PresenceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case info.OnlineCount >= 0:
		t.count = info.OnlineCount
	case t.fetcher != nil:
		ctx, cancel := context.WithTimeout(context.Background(), countFetchTimeout)
		count, err := t.fetcher.FetchOnlineCount(ctx)
		cancel()
		if err != nil {
			t.log.Warn("online count refetch failed, keeping last known value", "error", err)
		} else {
			t.count = count
		}
	}

	return PresenceEvent{
		Kind:        kind,
		UserID:      info.UserID,
		Text:        info.Text,
		OnlineCount: t.count,
	}
}

// OnlineCount returns the last adopted count.
func (t *Tracker) OnlineCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}
