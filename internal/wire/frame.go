package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// FrameType tags every frame exchanged over the socket.
type FrameType string

// Frame types understood by both sides of the connection.
const (
	TypeMessage    FrameType = "message"
	TypeUserJoined FrameType = "user_joined"
	TypeUserLeft   FrameType = "user_left"
	TypeError      FrameType = "error"
)

// ProtocolError describes a frame the protocol does not admit. Receiving
// one is not a transport failure: the offending frame is dropped and the
// connection stays open.
type ProtocolError struct {
	Reason string
	Cause  error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Cause)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// Frame is the closed set of frames the server sends. Only types in this
// package implement it; Decode rejects any type tag outside the set with a
// *ProtocolError rather than falling through silently.
type Frame interface {
	frameType() FrameType
}

// MessageFrame is a chat message fanned out by the server to every open
// connection, the sender included. MessageID and Timestamp are always
// server-assigned.
type MessageFrame struct {
	MessageID  string
	UserID     string
	UserName   string
	Department string
	Bio        string
	Text       string
	Timestamp  time.Time
}

func (MessageFrame) frameType() FrameType { return TypeMessage }

// PresenceInfo carries the fields shared by join and leave notices.
// OnlineCount is the authoritative connection count after the transition,
// or -1 when the frame carried none.
type PresenceInfo struct {
	MessageID   string
	UserID      string
	Text        string
	Timestamp   time.Time
	OnlineCount int
}

// JoinedFrame announces that a user connected.
type JoinedFrame struct {
	PresenceInfo
}

func (JoinedFrame) frameType() FrameType { return TypeUserJoined }

// LeftFrame announces that a user disconnected.
type LeftFrame struct {
	PresenceInfo
}

func (LeftFrame) frameType() FrameType { return TypeUserLeft }

// ErrorFrame reports an in-band server rejection, such as a rate-limited
// message. The connection stays open after one is received.
type ErrorFrame struct {
	Code string
	Text string
}

func (ErrorFrame) frameType() FrameType { return TypeError }

// envelope is the raw JSON shape shared by every frame on the wire.
type envelope struct {
	Type        string `json:"type"`
	MessageID   string `json:"message_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	UserName    string `json:"user_name,omitempty"`
	Department  string `json:"department,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Text        string `json:"text,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	OnlineCount *int   `json:"online_count,omitempty"`
	Code        string `json:"code,omitempty"`
}

// Decode parses a server frame into its typed form. Invalid JSON, unknown
// type tags and frames missing required fields all fail with a
// *ProtocolError, giving callers a single malformed-input path.
func Decode(data []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ProtocolError{Reason: "invalid frame JSON", Cause: err}
	}

	switch FrameType(env.Type) {
	case TypeMessage:
		return decodeMessage(env)
	case TypeUserJoined:
		info, err := decodePresence(env)
		if err != nil {
			return nil, err
		}
		return JoinedFrame{PresenceInfo: info}, nil
	case TypeUserLeft:
		info, err := decodePresence(env)
		if err != nil {
			return nil, err
		}
		return LeftFrame{PresenceInfo: info}, nil
	case TypeError:
		if env.Code == "" && env.Text == "" {
			return nil, &ProtocolError{Reason: "error frame without code or text"}
		}
		return ErrorFrame{Code: env.Code, Text: env.Text}, nil
	default:
		return nil, &ProtocolError{Reason: fmt.Sprintf("unknown frame type %q", env.Type)}
	}
}

func decodeMessage(env envelope) (Frame, error) {
	switch {
	case env.MessageID == "":
		return nil, &ProtocolError{Reason: "message frame without message_id"}
	case env.UserID == "":
		return nil, &ProtocolError{Reason: "message frame without user_id"}
	case env.Text == "":
		return nil, &ProtocolError{Reason: "message frame without text"}
	}

	ts, err := parseTimestamp(env.Timestamp)
	if err != nil {
		return nil, err
	}

	return MessageFrame{
		MessageID:  env.MessageID,
		UserID:     env.UserID,
		UserName:   env.UserName,
		Department: env.Department,
		Bio:        env.Bio,
		Text:       env.Text,
		Timestamp:  ts,
	}, nil
}

func decodePresence(env envelope) (PresenceInfo, error) {
	if env.UserID == "" {
		return PresenceInfo{}, &ProtocolError{Reason: "presence frame without user_id"}
	}

	ts, err := parseTimestamp(env.Timestamp)
	if err != nil {
		return PresenceInfo{}, err
	}

	count := -1
	if env.OnlineCount != nil {
		if *env.OnlineCount < 0 {
			return PresenceInfo{}, &ProtocolError{Reason: "presence frame with negative online_count"}
		}
		count = *env.OnlineCount
	}

	return PresenceInfo{
		MessageID:   env.MessageID,
		UserID:      env.UserID,
		Text:        env.Text,
		Timestamp:   ts,
		OnlineCount: count,
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &ProtocolError{Reason: "frame without timestamp"}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, &ProtocolError{Reason: "unparseable timestamp", Cause: err}
	}
	return ts, nil
}

// Encode renders a typed frame into its wire JSON.
func Encode(f Frame) ([]byte, error) {
	var env envelope
	switch fr := f.(type) {
	case MessageFrame:
		env = envelope{
			Type:       string(TypeMessage),
			MessageID:  fr.MessageID,
			UserID:     fr.UserID,
			UserName:   fr.UserName,
			Department: fr.Department,
			Bio:        fr.Bio,
			Text:       fr.Text,
			Timestamp:  formatTimestamp(fr.Timestamp),
		}
	case JoinedFrame:
		env = presenceEnvelope(TypeUserJoined, fr.PresenceInfo)
	case LeftFrame:
		env = presenceEnvelope(TypeUserLeft, fr.PresenceInfo)
	case ErrorFrame:
		env = envelope{Type: string(TypeError), Code: fr.Code, Text: fr.Text}
	default:
		return nil, fmt.Errorf("unsupported frame type %T", f)
	}
	return json.Marshal(env)
}

func presenceEnvelope(t FrameType, info PresenceInfo) envelope {
	env := envelope{
		Type:      string(t),
		MessageID: info.MessageID,
		UserID:    info.UserID,
		Text:      info.Text,
		Timestamp: formatTimestamp(info.Timestamp),
	}
	if info.OnlineCount >= 0 {
		count := info.OnlineCount
		env.OnlineCount = &count
	}
	return env
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

// ClientMessage is the one frame a client may send: a chat message carrying
// the sender's profile fields. Identity and timing are assigned server-side,
// so the shape has no message_id and no timestamp.
type ClientMessage struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	UserName   string `json:"user_name,omitempty"`
	Department string `json:"department,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

// NewClientMessage builds the outbound frame for a chat message.
func NewClientMessage(text, userName, department, bio string) ClientMessage {
	return ClientMessage{
		Type:       string(TypeMessage),
		Text:       text,
		UserName:   userName,
		Department: department,
		Bio:        bio,
	}
}

// DecodeClientMessage parses and shape-checks an inbound client frame.
// Clients may only send message frames; anything else is a protocol error.
// Text content rules are enforced separately via ValidateText.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, &ProtocolError{Reason: "invalid frame JSON", Cause: err}
	}
	if FrameType(msg.Type) != TypeMessage {
		return ClientMessage{}, &ProtocolError{
			Reason: fmt.Sprintf("client frames must be %q, got %q", TypeMessage, msg.Type),
		}
	}
	return msg, nil
}
