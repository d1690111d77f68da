package client

import (
	"time"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

// Kind names a bus event stream. Handlers register against one kind;
// channel subscribers receive every kind and switch on the concrete type.
type Kind string

// Event kinds published by the client core.
const (
	KindConnected       Kind = "connected"
	KindDisconnected    Kind = "disconnected"
	KindReconnecting    Kind = "reconnecting"
	KindReconnectFailed Kind = "reconnect_failed"
	KindError           Kind = "error"
	KindRateLimited     Kind = "rate_limited"
	KindProtocolError   Kind = "protocol_error"
	KindMessage         Kind = "message"
	KindUserJoined      Kind = "user_joined"
	KindUserLeft        Kind = "user_left"
)

// Event is implemented by every value published on the Bus.
type Event interface {
	Kind() Kind
}

// Connected reports the link reaching Open, on first connect or after a
// successful reconnect.
type Connected struct {
	URL string
}

func (Connected) Kind() Kind { return KindConnected }

// Disconnected reports the link leaving Open or a dialed socket being torn
// down. Deliberate closures never trigger reconnects.
type Disconnected struct {
	Code       int
	Reason     string
	Deliberate bool
}

func (Disconnected) Kind() Kind { return KindDisconnected }

// Reconnecting reports a scheduled reconnect attempt and its backoff delay.
type Reconnecting struct {
	Attempt int
	Delay   time.Duration
}

func (Reconnecting) Kind() Kind { return KindReconnecting }

// ReconnectFailed reports that the attempt cap was exhausted. The link is
// terminally closed; a fresh Connect starts a new sequence.
type ReconnectFailed struct {
	Attempts int
}

func (ReconnectFailed) Kind() Kind { return KindReconnectFailed }

// LinkError reports a transport-level failure such as a failed dial or an
// in-band server error. It is a status update, not a terminal condition.
type LinkError struct {
	Err error
}

func (LinkError) Kind() Kind { return KindError }

// RateLimited reports a server rejection for exceeding an admission rate.
// For message rates the connection stays open; for connect rates the
// sequence ends without retries.
type RateLimited struct {
	Notice string
}

func (RateLimited) Kind() Kind { return KindRateLimited }

// ProtocolViolation reports an inbound frame the protocol does not admit.
// The frame was dropped and the connection stays open.
type ProtocolViolation struct {
	Err error
}

func (ProtocolViolation) Kind() Kind { return KindProtocolError }

// MessageReceived carries a chat message frame exactly as the server fanned
// it out, sender echoes included.
type MessageReceived struct {
	Frame wire.MessageFrame
}

func (MessageReceived) Kind() Kind { return KindMessage }

// UserJoined carries a join notice.
type UserJoined struct {
	Frame wire.JoinedFrame
}

func (UserJoined) Kind() Kind { return KindUserJoined }

// UserLeft carries a leave notice.
type UserLeft struct {
	Frame wire.LeftFrame
}

func (UserLeft) Kind() Kind { return KindUserLeft }
