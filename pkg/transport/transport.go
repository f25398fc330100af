// Package transport abstracts the realtime channel primitive that delivers
// trigger events. Implementations live under pkg/channels; the core consumes
// this interface only and performs no connection management of its own.
package transport

import "context"

// RawHandler receives the raw payload of every message delivered on a bound
// channel. Handlers run on the transport's delivery goroutine; per-channel
// delivery order is the transport's delivery order.
type RawHandler func(payload []byte)

// Binding is a live channel attachment. Unbind detaches the handler; the
// underlying connection may stay open if it is shared across identities.
type Binding interface {
	Unbind() error
}

// Transport is an established realtime connection capable of binding
// channels scoped to a client identity.
type Transport interface {
	// Bind attaches handler to the channel for clientIdentity. It blocks
	// until the channel is established; events delivered before it returns
	// are missed, not buffered.
	Bind(ctx context.Context, clientIdentity string, handler RawHandler) (Binding, error)

	// Close tears down the connection and every remaining binding.
	Close() error
}

// ChannelTopic names the transport channel carrying trigger events for a
// client identity. All providers use the same naming scheme.
func ChannelTopic(clientIdentity string) string {
	return "relaykit.triggers." + clientIdentity
}
