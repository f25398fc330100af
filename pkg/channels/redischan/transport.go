// Package redischan provides a Redis Pub/Sub-backed realtime transport, one
// channel per client identity.
package redischan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/relaykit/relaykit-go/pkg/transport"
)

type Transport struct {
	client *redis.Client
	logger *slog.Logger
}

// Connect establishes the Redis connection and verifies it with a ping.
func Connect(ctx context.Context, addr, apiKey string, logger *slog.Logger) (*Transport, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: apiKey,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Transport{
		client: client,
		logger: logger.With("module", "redis-transport"),
	}, nil
}

func (t *Transport) Bind(ctx context.Context, clientIdentity string, handler transport.RawHandler) (transport.Binding, error) {
	channel := transport.ChannelTopic(clientIdentity)

	pubsub := t.client.Subscribe(ctx, channel)

	// Receive blocks until the SUBSCRIBE is confirmed, so the channel is
	// established before Bind returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()

		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	t.logger.Debug("Bound realtime channel", "channel", channel)

	go func() {
		for msg := range pubsub.Channel() {
			handler([]byte(msg.Payload))
		}
	}()

	return &binding{pubsub: pubsub}, nil
}

func (t *Transport) Close() error {
	return t.client.Close()
}

type binding struct {
	pubsub *redis.PubSub
}

func (b *binding) Unbind() error {
	return b.pubsub.Close()
}
