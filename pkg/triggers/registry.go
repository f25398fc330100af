package triggers

import (
	"log/slog"
	"sync"

	"github.com/relaykit/relaykit-go/pkg/events"
)

// Callback receives trigger events that pass the subscription's filter. It
// runs on the transport's delivery goroutine; long work should be handed off.
type Callback func(event *events.TriggerEvent)

type subscription struct {
	filter   Criteria
	callback Callback
}

// Registry holds the single live subscription per client identity.
// Registering for an identity that already has a subscription replaces it
// (last-writer-wins); there is no fan-out to multiple callbacks. Register
// and Clear are atomic with respect to Dispatch: a dispatch observes either
// the fully-old or the fully-new subscription, never a mix.
type Registry struct {
	mu            sync.RWMutex
	subscriptions map[string]subscription
	logger        *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		subscriptions: make(map[string]subscription),
		logger:        logger.With("module", "subscription-registry"),
	}
}

// Register stores or replaces the subscription for clientIdentity. A
// superseded callback is no longer invoked for subsequent events; an event
// already in flight at replacement time may still reach it.
func (r *Registry) Register(clientIdentity string, filter Criteria, callback Callback) {
	r.mu.Lock()
	_, replaced := r.subscriptions[clientIdentity]
	r.subscriptions[clientIdentity] = subscription{filter: filter, callback: callback}
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("Replaced subscription", "client_identity", clientIdentity)
	}
}

// Clear removes the subscription for clientIdentity. Subsequent events for
// that identity are dropped silently. Clearing an identity with no
// subscription is a no-op.
func (r *Registry) Clear(clientIdentity string) {
	r.mu.Lock()
	delete(r.subscriptions, clientIdentity)
	r.mu.Unlock()
}

// Active reports whether clientIdentity has a live subscription.
func (r *Registry) Active(clientIdentity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.subscriptions[clientIdentity]

	return ok
}

// Dispatch evaluates the identity's filter against event and invokes the
// callback on a match. No subscription means a silent drop. A panicking
// callback is isolated so it cannot break delivery of later events.
func (r *Registry) Dispatch(clientIdentity string, event *events.TriggerEvent) {
	r.mu.RLock()
	sub, ok := r.subscriptions[clientIdentity]
	r.mu.RUnlock()

	if !ok {
		return
	}

	if !sub.filter.Matches(event) {
		r.logger.Debug("Event filtered out",
			"client_identity", clientIdentity,
			"event_id", event.Metadata.ID,
			"trigger_name", event.Metadata.TriggerName)

		return
	}

	r.invoke(clientIdentity, sub.callback, event)
}

func (r *Registry) invoke(clientIdentity string, callback Callback, event *events.TriggerEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Subscriber callback panicked",
				"client_identity", clientIdentity,
				"event_id", event.Metadata.ID,
				"panic", rec)
		}
	}()

	callback(event)
}
