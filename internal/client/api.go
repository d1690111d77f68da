package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

// ServerAPI reads the connection manager's companion HTTP endpoints. It
// implements CountFetcher for the presence tracker and backfills recent
// history for interfaces that render a scrollback on start.
type ServerAPI struct {
	base   string
	client *http.Client
}

// NewServerAPI targets a server's HTTP base URL, e.g. "http://localhost:8080".
func NewServerAPI(base string) *ServerAPI {
	return &ServerAPI{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: countFetchTimeout},
	}
}

// FetchOnlineCount implements CountFetcher against GET /users/online.
func (a *ServerAPI) FetchOnlineCount(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := a.getJSON(ctx, "/users/online", &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

// RecentMessages returns up to limit recent chat messages, oldest first,
// from GET /messages/recent. limit <= 0 leaves the choice to the server.
func (a *ServerAPI) RecentMessages(ctx context.Context, limit int) ([]wire.MessageFrame, error) {
	path := "/messages/recent"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var raw []json.RawMessage
	if err := a.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	frames := make([]wire.MessageFrame, 0, len(raw))
	for _, data := range raw {
		frame, err := wire.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("recent history: %w", err)
		}
		msg, ok := frame.(wire.MessageFrame)
		if !ok {
			return nil, fmt.Errorf("recent history: unexpected frame %T", frame)
		}
		frames = append(frames, msg)
	}
	return frames, nil
}

func (a *ServerAPI) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
