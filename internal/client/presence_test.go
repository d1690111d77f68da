package client_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nightingale-hq/chatwire/internal/client"
	"github.com/nightingale-hq/chatwire/internal/wire"
)

type stubFetcher struct {
	mu    sync.Mutex
	count int
	err   error
	calls int
}

func (f *stubFetcher) FetchOnlineCount(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.count, f.err
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func joined(userID string, count int) wire.JoinedFrame {
	return wire.JoinedFrame{PresenceInfo: wire.PresenceInfo{UserID: userID, OnlineCount: count}}
}

func left(userID string, count int) wire.LeftFrame {
	return wire.LeftFrame{PresenceInfo: wire.PresenceInfo{UserID: userID, OnlineCount: count}}
}

// TestTrackerAdoptsServerCount verifies the count is always taken from the
// frame, never incremented or decremented locally.
func TestTrackerAdoptsServerCount(t *testing.T) {
	tracker := client.NewTracker(testLogger(), nil)

	evt := tracker.ApplyJoined(joined("bob", 3))
	require.Equal(t, client.PresenceJoined, evt.Kind)
	require.Equal(t, 3, evt.OnlineCount)
	require.Equal(t, 3, tracker.OnlineCount())

	// A replayed join for the same user does not bump the count.
	tracker.ApplyJoined(joined("bob", 3))
	require.Equal(t, 3, tracker.OnlineCount())

	// A leave can raise the count when the server says so.
	evt = tracker.ApplyLeft(left("carol", 7))
	require.Equal(t, client.PresenceLeft, evt.Kind)
	require.Equal(t, 7, tracker.OnlineCount())
}

func TestTrackerRefetchesWhenCountAbsent(t *testing.T) {
	fetcher := &stubFetcher{count: 7}
	tracker := client.NewTracker(testLogger(), fetcher)

	evt := tracker.ApplyJoined(joined("bob", -1))
	require.Equal(t, 7, evt.OnlineCount)
	require.Equal(t, 7, tracker.OnlineCount())
	require.Equal(t, 1, fetcher.callCount())
}

func TestTrackerKeepsLastKnownOnFetchError(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("endpoint unreachable")}
	tracker := client.NewTracker(testLogger(), fetcher)

	tracker.ApplyJoined(joined("bob", 4))
	require.Equal(t, 4, tracker.OnlineCount())

	evt := tracker.ApplyLeft(left("bob", -1))
	require.Equal(t, 4, evt.OnlineCount, "a failed refetch keeps the last known count")
	require.Equal(t, 4, tracker.OnlineCount())
	require.Equal(t, 1, fetcher.callCount())
}

func TestTrackerWithoutFetcher(t *testing.T) {
	tracker := client.NewTracker(testLogger(), nil)

	tracker.ApplyJoined(joined("bob", 2))
	evt := tracker.ApplyLeft(left("bob", -1))
	require.Equal(t, 2, evt.OnlineCount)
	require.Equal(t, 2, tracker.OnlineCount())
}
