package triggers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/relaykit/relaykit-go/pkg/events"
	"github.com/relaykit/relaykit-go/pkg/transport"
)

// Binder maintains the 1:1 mapping from client identity to live realtime
// channel. Channels are established lazily on first subscribe and survive
// subscribe/unsubscribe cycles only until ReleaseChannel.
type Binder struct {
	mu        sync.Mutex
	transport transport.Transport
	registry  *Registry
	bindings  map[string]transport.Binding
	logger    *slog.Logger
}

func NewBinder(tr transport.Transport, registry *Registry, logger *slog.Logger) *Binder {
	return &Binder{
		transport: tr,
		registry:  registry,
		bindings:  make(map[string]transport.Binding),
		logger:    logger.With("module", "channel-binder"),
	}
}

// EnsureChannel binds the realtime channel for clientIdentity, installing
// the listener that parses raw payloads and hands them to the registry.
// Idempotent: an already-bound identity returns immediately. A transport
// failure surfaces as ErrTransportUnavailable.
func (b *Binder) EnsureChannel(ctx context.Context, clientIdentity string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.bindings[clientIdentity]; ok {
		return nil
	}

	binding, err := b.transport.Bind(ctx, clientIdentity, func(payload []byte) {
		event, err := events.Parse(payload)
		if err != nil {
			b.logger.Warn("Dropping undecodable event",
				"client_identity", clientIdentity,
				"error", err)

			return
		}

		b.registry.Dispatch(clientIdentity, event)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}

	b.bindings[clientIdentity] = binding
	b.logger.Info("Realtime channel established", "client_identity", clientIdentity)

	return nil
}

// ReleaseChannel detaches the listener for clientIdentity. The underlying
// transport connection stays open; it may be shared across identities.
// Releasing an unbound identity is a no-op.
func (b *Binder) ReleaseChannel(clientIdentity string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	binding, ok := b.bindings[clientIdentity]
	if !ok {
		return nil
	}

	delete(b.bindings, clientIdentity)

	if err := binding.Unbind(); err != nil {
		return fmt.Errorf("failed to release channel for %s: %w", clientIdentity, err)
	}

	b.logger.Info("Realtime channel released", "client_identity", clientIdentity)

	return nil
}

// ReleaseAll detaches every remaining binding, collecting errors.
func (b *Binder) ReleaseAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error

	for clientIdentity, binding := range b.bindings {
		if err := binding.Unbind(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release channel for %s: %w", clientIdentity, err))
		}
	}

	clear(b.bindings)

	return errors.Join(errs...)
}
