// Package websocket provides the realtime transport for the platform's
// hosted websocket gateway. One connection carries every bound channel; the
// gateway multiplexes frames tagged with the channel name.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relaykit/relaykit-go/pkg/transport"
)

type frame struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

type command struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type Transport struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[string]transport.RawHandler
}

// Connect dials the gateway and starts the read loop. The API key is sent as
// a bearer token on the handshake request.
func Connect(ctx context.Context, gatewayURL, apiKey string, logger *slog.Logger) (*Transport, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, gatewayURL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway %s: %w", gatewayURL, err)
	}

	t := &Transport{
		conn:     conn,
		logger:   logger.With("module", "websocket-transport"),
		handlers: make(map[string]transport.RawHandler),
	}

	go t.readLoop()

	return t, nil
}

func (t *Transport) Bind(_ context.Context, clientIdentity string, handler transport.RawHandler) (transport.Binding, error) {
	channel := transport.ChannelTopic(clientIdentity)

	t.mu.Lock()
	t.handlers[channel] = handler
	t.mu.Unlock()

	if err := t.send(command{Action: "subscribe", Channel: channel}); err != nil {
		t.mu.Lock()
		delete(t.handlers, channel)
		t.mu.Unlock()

		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	t.logger.Debug("Bound realtime channel", "channel", channel)

	return &binding{transport: t, channel: channel}, nil
}

func (t *Transport) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()

	return t.conn.Close()
}

func (t *Transport) send(cmd command) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.conn.WriteJSON(cmd)
}

func (t *Transport) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Error("Gateway connection lost", "error", err)
			}

			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.logger.Warn("Dropping unparseable gateway frame", "error", err)

			continue
		}

		t.mu.RLock()
		handler, ok := t.handlers[f.Channel]
		t.mu.RUnlock()

		if !ok {
			continue
		}

		handler(f.Payload)
	}
}

type binding struct {
	transport *Transport
	channel   string
}

func (b *binding) Unbind() error {
	b.transport.mu.Lock()
	delete(b.transport.handlers, b.channel)
	b.transport.mu.Unlock()

	return b.transport.send(command{Action: "unsubscribe", Channel: b.channel})
}
