package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

// Client bundles the transport link, event bus, delivery ledger and
// presence tracker for one chat session. It is the single dependency a
// frontend needs.
type Client struct {
	cfg     Config
	session Session
	log     *slog.Logger

	bus     *Bus
	link    *Link
	ledger  *Ledger
	tracker *Tracker
	api     *ServerAPI
}

// noopRenderer lets headless callers skip display handling entirely.
type noopRenderer struct{}

func (noopRenderer) RenderPending(Message)         {}
func (noopRenderer) ConfirmRender(string, Message) {}
func (noopRenderer) RenderRemote(Message)          {}
func (noopRenderer) MarkFailed(string)             {}

// New wires a client core for session. renderer receives the ledger's
// display instructions and may be nil for headless use. Inbound frames are
// routed so the ledger sees every chat message and the tracker sees every
// presence notice before any channel subscriber observes the event.
func New(cfg Config, session Session, renderer Renderer, log *slog.Logger) (*Client, error) {
	cfg, err := cfg.sanitize()
	if err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}
	if renderer == nil {
		renderer = noopRenderer{}
	}

	bus := NewBus(log)
	api := NewServerAPI(cfg.httpBase())
	ledger := NewLedger(log, session, cfg.ConfirmWindow, renderer)
	tracker := NewTracker(log, api)
	link := NewLink(cfg, cfg.wsEndpoint(session.UserID), bus, log)

	bus.On(KindMessage, func(evt Event) {
		if msg, ok := evt.(MessageReceived); ok {
			ledger.Reconcile(msg.Frame)
		}
	})
	bus.On(KindUserJoined, func(evt Event) {
		if joined, ok := evt.(UserJoined); ok {
			tracker.ApplyJoined(joined.Frame)
		}
	})
	bus.On(KindUserLeft, func(evt Event) {
		if left, ok := evt.(UserLeft); ok {
			tracker.ApplyLeft(left.Frame)
		}
	})

	return &Client{
		cfg:     cfg,
		session: session,
		log:     log,
		bus:     bus,
		link:    link,
		ledger:  ledger,
		tracker: tracker,
		api:     api,
	}, nil
}

// Connect starts the connection sequence; progress arrives as bus events.
func (c *Client) Connect(ctx context.Context) error {
	return c.link.Connect(ctx)
}

// Disconnect deliberately ends the sequence, cancelling any pending
// reconnect before it returns.
func (c *Client) Disconnect() error {
	return c.link.Disconnect()
}

// SendText validates, optimistically renders and transmits one chat
// message. The returned message carries the temp id of the pending bubble.
// On any failure the bubble is marked failed and the error returned;
// nothing is queued for retry.
func (c *Client) SendText(text string) (Message, error) {
	trimmed, err := wire.ValidateText(text)
	if err != nil {
		return Message{}, &ValidationError{Field: "text", Reason: err.Error()}
	}

	msg := c.ledger.Track(trimmed)

	frame := wire.NewClientMessage(trimmed, c.session.UserName, c.session.Department, c.session.Bio)
	payload, err := json.Marshal(frame)
	if err != nil {
		c.ledger.Fail(msg.ID)
		msg.Status = StatusFailed
		return msg, err
	}
	if err := c.link.Send(payload); err != nil {
		c.ledger.Fail(msg.ID)
		msg.Status = StatusFailed
		return msg, err
	}
	return msg, nil
}

// Events returns a buffered stream of everything the core observes. See
// Bus.Subscribe for the lossy-when-lagging contract.
func (c *Client) Events(buffer int) <-chan Event {
	return c.bus.Subscribe(buffer)
}

// On registers a synchronous handler; see Bus.On for ordering rules.
func (c *Client) On(kind Kind, fn Handler) {
	c.bus.On(kind, fn)
}

// Recent backfills up to limit confirmed messages from the server's history
// endpoint, oldest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]Message, error) {
	frames, err := c.api.RecentMessages(ctx, limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(frames, func(f wire.MessageFrame, _ int) Message {
		return Message{
			ID:         f.MessageID,
			SenderID:   f.UserID,
			SenderName: f.UserName,
			Text:       f.Text,
			Timestamp:  f.Timestamp,
			Status:     StatusConfirmed,
		}
	}), nil
}

// OnlineCount reports the last server-adopted presence count.
func (c *Client) OnlineCount() int {
	return c.tracker.OnlineCount()
}

// Pending lists locally sent messages still awaiting their server echo.
func (c *Client) Pending() []Message {
	return c.ledger.Pending()
}

// State reports the link's lifecycle state.
func (c *Client) State() LinkState {
	return c.link.State()
}

// Session returns the identity this client was built with.
func (c *Client) Session() Session {
	return c.session
}

// Close disconnects and shuts the event bus down, closing every subscriber
// channel.
func (c *Client) Close() error {
	err := c.link.Disconnect()
	c.bus.Close()
	return err
}
