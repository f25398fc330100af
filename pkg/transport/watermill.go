package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// WatermillTransport adapts any watermill message.Subscriber (gochannel,
// Kafka) to the Transport interface. Each binding runs one consume loop; the
// loop acks every message since delivery guarantees across reconnects are
// out of scope.
type WatermillTransport struct {
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewWatermill(subscriber message.Subscriber, logger *slog.Logger) *WatermillTransport {
	return &WatermillTransport{
		subscriber: subscriber,
		logger:     logger.With("module", "watermill-transport"),
	}
}

func (t *WatermillTransport) Bind(ctx context.Context, clientIdentity string, handler RawHandler) (Binding, error) {
	topic := ChannelTopic(clientIdentity)

	// The binding outlives the caller's context; its lifetime ends at
	// Unbind or transport Close.
	bindCtx, cancel := context.WithCancel(context.Background())

	messages, err := t.subscriber.Subscribe(bindCtx, topic)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	t.logger.Debug("Bound realtime channel", "topic", topic)

	go func() {
		for msg := range messages {
			handler(msg.Payload)
			msg.Ack()
		}
	}()

	return &watermillBinding{cancel: cancel}, nil
}

func (t *WatermillTransport) Close() error {
	return t.subscriber.Close()
}

type watermillBinding struct {
	cancel context.CancelFunc
}

func (b *watermillBinding) Unbind() error {
	b.cancel()

	return nil
}
