package wire_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

// TestDecodeMessageFrame verifies that a complete server message frame
// decodes into its typed form with the timestamp parsed.
func TestDecodeMessageFrame(t *testing.T) {
	raw := `{
		"type": "message",
		"message_id": "9f2c7d3e-0000-4000-8000-000000000001",
		"user_id": "alice",
		"user_name": "Alice",
		"department": "Engineering",
		"bio": "Likes distributed systems",
		"text": "hello there",
		"timestamp": "2026-03-01T12:30:45.123456789Z"
	}`

	frame, err := wire.Decode([]byte(raw))
	require.NoError(t, err)

	msg, ok := frame.(wire.MessageFrame)
	require.True(t, ok, "expected wire.MessageFrame, got %T", frame)
	require.Equal(t, "9f2c7d3e-0000-4000-8000-000000000001", msg.MessageID)
	require.Equal(t, "alice", msg.UserID)
	require.Equal(t, "Alice", msg.UserName)
	require.Equal(t, "Engineering", msg.Department)
	require.Equal(t, "hello there", msg.Text)
	require.Equal(t, time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.UTC), msg.Timestamp.UTC())
}

// TestDecodeRejectsUnknownType verifies that a frame with a type tag outside
// the closed union fails with a ProtocolError instead of being coerced into
// one of the known shapes.
func TestDecodeRejectsUnknownType(t *testing.T) {
	frame, err := wire.Decode([]byte(`{"type":"typing","user_id":"alice"}`))
	require.Nil(t, frame)
	require.Error(t, err)

	var protoErr *wire.ProtocolError
	require.True(t, errors.As(err, &protoErr), "expected *wire.ProtocolError, got %T", err)
	require.Contains(t, protoErr.Reason, "unknown frame type")
}

// TestDecodeRejectsInvalidJSON verifies that unparseable input surfaces as a
// ProtocolError with the JSON failure attached as its cause.
func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, err := wire.Decode([]byte(`{"type": "message",`))
	var protoErr *wire.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	require.Error(t, protoErr.Cause)
}

// TestDecodeRejectsIncompleteFrames verifies that frames missing required
// fields are rejected rather than decoded with zero values.
func TestDecodeRejectsIncompleteFrames(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"message without message_id", `{"type":"message","user_id":"alice","text":"hi","timestamp":"2026-03-01T12:00:00Z"}`},
		{"message without user_id", `{"type":"message","message_id":"m1","text":"hi","timestamp":"2026-03-01T12:00:00Z"}`},
		{"message without text", `{"type":"message","message_id":"m1","user_id":"alice","timestamp":"2026-03-01T12:00:00Z"}`},
		{"message without timestamp", `{"type":"message","message_id":"m1","user_id":"alice","text":"hi"}`},
		{"message with bad timestamp", `{"type":"message","message_id":"m1","user_id":"alice","text":"hi","timestamp":"yesterday"}`},
		{"joined without user_id", `{"type":"user_joined","timestamp":"2026-03-01T12:00:00Z"}`},
		{"left with negative count", `{"type":"user_left","user_id":"alice","timestamp":"2026-03-01T12:00:00Z","online_count":-3}`},
		{"error without code or text", `{"type":"error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := wire.Decode([]byte(tc.raw))
			var protoErr *wire.ProtocolError
			require.True(t, errors.As(err, &protoErr), "expected ProtocolError, got %v", err)
		})
	}
}

// TestDecodePresenceOnlineCount verifies the optional online_count handling:
// a missing field decodes to -1 so consumers can distinguish "absent" from a
// real zero.
func TestDecodePresenceOnlineCount(t *testing.T) {
	withCount := `{"type":"user_joined","user_id":"bob","text":"User bob joined the chat","timestamp":"2026-03-01T12:00:00Z","online_count":4}`
	frame, err := wire.Decode([]byte(withCount))
	require.NoError(t, err)
	joined, ok := frame.(wire.JoinedFrame)
	require.True(t, ok)
	require.Equal(t, 4, joined.OnlineCount)

	withoutCount := `{"type":"user_left","user_id":"bob","timestamp":"2026-03-01T12:00:00Z"}`
	frame, err = wire.Decode([]byte(withoutCount))
	require.NoError(t, err)
	left, ok := frame.(wire.LeftFrame)
	require.True(t, ok)
	require.Equal(t, -1, left.OnlineCount)
}

// TestEncodePresenceOmitsAbsentCount verifies that a presence frame built
// without an authoritative count leaves online_count off the wire entirely
// instead of emitting a misleading zero.
func TestEncodePresenceOmitsAbsentCount(t *testing.T) {
	frame := wire.JoinedFrame{PresenceInfo: wire.PresenceInfo{
		MessageID:   "m1",
		UserID:      "carol",
		Text:        "User carol joined the chat",
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		OnlineCount: -1,
	}}

	data, err := wire.Encode(frame)
	require.NoError(t, err)
	require.NotContains(t, string(data), "online_count")

	frame.OnlineCount = 0
	data, err = wire.Encode(frame)
	require.NoError(t, err)
	require.Contains(t, string(data), `"online_count":0`)
}

// TestEncodeDecodeMessage verifies that a server-built message frame survives
// the trip onto the wire and back, including nanosecond timestamps.
func TestEncodeDecodeMessage(t *testing.T) {
	original := wire.MessageFrame{
		MessageID: "m42",
		UserID:    "dave",
		UserName:  "Dave",
		Text:      "round and round",
		Timestamp: time.Date(2026, 3, 1, 9, 15, 0, 42, time.UTC),
	}

	data, err := wire.Encode(original)
	require.NoError(t, err)

	decoded, err := wire.Decode(data)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

// TestDecodeClientMessage verifies the inbound shape check: clients may only
// send message frames, and anything else is rejected at the boundary.
func TestDecodeClientMessage(t *testing.T) {
	msg, err := wire.DecodeClientMessage([]byte(`{"type":"message","text":"hi","user_name":"Eve"}`))
	require.NoError(t, err)
	require.Equal(t, "hi", msg.Text)
	require.Equal(t, "Eve", msg.UserName)

	_, err = wire.DecodeClientMessage([]byte(`{"type":"user_joined","user_id":"eve"}`))
	var protoErr *wire.ProtocolError
	require.True(t, errors.As(err, &protoErr))

	_, err = wire.DecodeClientMessage([]byte(`not json`))
	require.True(t, errors.As(err, &protoErr))
}

// TestValidUserID verifies the shared user id rule: 1-100 characters of
// letters, digits, underscore and hyphen.
func TestValidUserID(t *testing.T) {
	cases := []struct {
		id    string
		valid bool
	}{
		{"alice", true},
		{"user_42-test", true},
		{strings.Repeat("a", 100), true},
		{"", false},
		{strings.Repeat("a", 101), false},
		{"has space", false},
		{"semi;colon", false},
		{"ünïcode", false},
		{"slash/id", false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.valid, wire.ValidUserID(tc.id), "id %q", tc.id)
	}
}

// TestValidateText verifies trimming and the rune-based length limit.
func TestValidateText(t *testing.T) {
	trimmed, err := wire.ValidateText("  hello  ")
	require.NoError(t, err)
	require.Equal(t, "hello", trimmed)

	_, err = wire.ValidateText("   ")
	require.Error(t, err)

	longest := strings.Repeat("é", wire.MaxTextRunes)
	trimmed, err = wire.ValidateText(longest)
	require.NoError(t, err)
	require.Equal(t, longest, trimmed)

	_, err = wire.ValidateText(strings.Repeat("é", wire.MaxTextRunes+1))
	require.Error(t, err)
}
