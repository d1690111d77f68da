package server

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func asStrings(frames [][]byte) []string {
	return lo.Map(frames, func(frame []byte, _ int) string { return string(frame) })
}

// TestHistoryEvictsOldest verifies the ring drops the oldest frame once
// capacity is reached.
func TestHistoryEvictsOldest(t *testing.T) {
	h := newHistory(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		h.add([]byte(s))
	}
	require.Equal(t, []string{"b", "c", "d"}, asStrings(h.recent(0)))
}

// TestHistoryRecentLimits verifies recent returns the newest frames in
// oldest-first order, bounded by limit.
func TestHistoryRecentLimits(t *testing.T) {
	h := newHistory(5)
	for _, s := range []string{"a", "b", "c", "d"} {
		h.add([]byte(s))
	}

	require.Equal(t, []string{"c", "d"}, asStrings(h.recent(2)))
	require.Equal(t, []string{"a", "b", "c", "d"}, asStrings(h.recent(10)))
	require.Equal(t, []string{"a", "b", "c", "d"}, asStrings(h.recent(0)), "non-positive limit returns everything")
}

// TestHistoryEmpty verifies an empty ring yields no frames.
func TestHistoryEmpty(t *testing.T) {
	h := newHistory(4)
	require.Empty(t, h.recent(10))
}

// TestHistoryWrapsRepeatedly verifies ordering survives several full laps
// around the ring.
func TestHistoryWrapsRepeatedly(t *testing.T) {
	h := newHistory(2)
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		h.add([]byte(s))
	}
	require.Equal(t, []string{"f", "g"}, asStrings(h.recent(0)))
	require.Equal(t, []string{"g"}, asStrings(h.recent(1)))
}
