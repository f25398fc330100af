// Package cmd provides the constructors shared by SDK binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/relaykit/relaykit-go/pkg/channels/gochannel"
	"github.com/relaykit/relaykit-go/pkg/channels/kafka"
	"github.com/relaykit/relaykit-go/pkg/channels/natsconn"
	"github.com/relaykit/relaykit-go/pkg/channels/redischan"
	"github.com/relaykit/relaykit-go/pkg/channels/websocket"
	"github.com/relaykit/relaykit-go/pkg/config"
	"github.com/relaykit/relaykit-go/pkg/transport"
)

// NewTransport builds the realtime transport selected by cfg. clientID
// scopes the Kafka consumer group so concurrent processes don't steal each
// other's events.
func NewTransport(ctx context.Context, cfg *config.Config, clientID string, logger *slog.Logger) (transport.Transport, error) {
	switch cfg.Realtime.Provider {
	case "gochannel":
		_, subscriber, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory channel: %w", err)
		}

		return transport.NewWatermill(subscriber, logger), nil
	case "kafka":
		_, subscriber, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), cfg.Realtime.KafkaBrokers, clientID)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka channel: %w", err)
		}

		return transport.NewWatermill(subscriber, logger), nil
	case "nats":
		return natsconn.Connect(cfg.Realtime.NATSURL, cfg.APIKey, logger)
	case "redis":
		return redischan.Connect(ctx, cfg.Realtime.RedisAddr, cfg.APIKey, logger)
	case "websocket":
		return websocket.Connect(ctx, cfg.Realtime.GatewayURL, cfg.APIKey, logger)
	default:
		return nil, fmt.Errorf("unsupported realtime provider: %s", cfg.Realtime.Provider)
	}
}
