package main

import (
	"bytes"
	"context"
	"cube-race/domain/event"
	"cube-race/infrastructure/gateway"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// nodeClient talks to a running node on behalf of one user.
type nodeClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// send posts a command and returns the processor's ack.
func (c *nodeClient) send(ctx context.Context, req gateway.CommandRequest) (gateway.Ack, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return gateway.Ack{}, err
	}
	endpoint := fmt.Sprintf("%s/rooms/%s/commands", strings.TrimSuffix(c.baseURL, "/"), url.PathEscape(req.RoomID))
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return gateway.Ack{}, err
	}
	r.Header.Set("Authorization", "Bearer "+c.token)
	r.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(r)
	if err != nil {
		return gateway.Ack{}, err
	}
	defer func() { _ = res.Body.Close() }()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return gateway.Ack{}, err
	}
	if res.StatusCode != http.StatusOK {
		return gateway.Ack{}, fmt.Errorf("node answered %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}
	var ack gateway.Ack
	if err = json.Unmarshal(data, &ack); err != nil {
		return gateway.Ack{}, fmt.Errorf("unexpected answer %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}
	return ack, nil
}

// serverFrame is either an event or an ack.
type serverFrame struct {
	Type          string           `json:"type"`
	Event         *event.RoomEvent `json:"event,omitempty"`
	CorrelationID string           `json:"correlationId,omitempty"`
	OK            bool             `json:"ok"`
	Error         string           `json:"error,omitempty"`
}

// watch streams the room events to onEvent until ctx is done or the node
// closes the connection.
func (c *nodeClient) watch(ctx context.Context, roomID string, onEvent func(event.RoomEvent)) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"roomId": {roomID}, "token": {c.token}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.baseURL, err)
	}
	defer func() { _ = conn.Close() }()
	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		var frame serverFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		if frame.Event != nil {
			onEvent(*frame.Event)
			if frame.Event.Name == event.RoomDeleted {
				return nil
			}
		}
	}
}
