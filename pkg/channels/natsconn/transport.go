// Package natsconn provides a NATS-backed realtime transport, one subject
// per client identity.
package natsconn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/relaykit/relaykit-go/pkg/transport"
)

type Transport struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect establishes the NATS connection. The API key is passed as a NATS
// token; server-side authorization of that token is not this package's
// concern.
func Connect(url, apiKey string, logger *slog.Logger) (*Transport, error) {
	conn, err := nats.Connect(url,
		nats.Token(apiKey),
		nats.Name("relaykit-sdk"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return &Transport{
		conn:   conn,
		logger: logger.With("module", "nats-transport"),
	}, nil
}

func (t *Transport) Bind(_ context.Context, clientIdentity string, handler transport.RawHandler) (transport.Binding, error) {
	subject := transport.ChannelTopic(clientIdentity)

	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	t.logger.Debug("Bound realtime channel", "subject", subject)

	return &binding{sub: sub}, nil
}

func (t *Transport) Close() error {
	return t.conn.Drain()
}

type binding struct {
	sub *nats.Subscription
}

func (b *binding) Unbind() error {
	return b.sub.Unsubscribe()
}
