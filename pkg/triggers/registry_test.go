package triggers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaykit/relaykit-go/pkg/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_DispatchInvokesMatchingCallback(t *testing.T) {
	registry := NewRegistry(quietLogger())

	var calls int

	// Filter on app name only; the event's app name differs in case.
	registry.Register("client-1", Criteria{AppName: "GitHub"}, func(event *events.TriggerEvent) {
		calls++
		assert.Equal(t, "ti_123", event.Metadata.ID)
	})

	registry.Dispatch("client-1", githubCommitEvent())

	assert.Equal(t, 1, calls)
}

func TestRegistry_DispatchDropsNonMatchingEvent(t *testing.T) {
	registry := NewRegistry(quietLogger())

	var calls int

	registry.Register("client-1", Criteria{TriggerID: "abc"}, func(*events.TriggerEvent) {
		calls++
	})

	// Event carries metadata.id "ti_123", not "abc".
	registry.Dispatch("client-1", githubCommitEvent())

	assert.Zero(t, calls)
}

func TestRegistry_RegisterReplacesSubscription(t *testing.T) {
	registry := NewRegistry(quietLogger())

	var oldCalls, newCalls int

	registry.Register("client-1", Criteria{TriggerName: "GITHUB_COMMIT_EVENT"}, func(*events.TriggerEvent) {
		oldCalls++
	})
	registry.Register("client-1", Criteria{TriggerName: "GITHUB_PR_EVENT"}, func(*events.TriggerEvent) {
		newCalls++
	})

	// Matches only the old filter: the superseded callback must stay silent.
	registry.Dispatch("client-1", githubCommitEvent())

	assert.Zero(t, oldCalls)
	assert.Zero(t, newCalls)

	prEvent := githubCommitEvent()
	prEvent.Metadata.TriggerName = "GITHUB_PR_EVENT"

	registry.Dispatch("client-1", prEvent)

	assert.Zero(t, oldCalls)
	assert.Equal(t, 1, newCalls)
}

func TestRegistry_ClearStopsDispatch(t *testing.T) {
	registry := NewRegistry(quietLogger())

	var calls int

	registry.Register("client-1", Criteria{}, func(*events.TriggerEvent) {
		calls++
	})
	registry.Clear("client-1")

	registry.Dispatch("client-1", githubCommitEvent())

	assert.Zero(t, calls)
	assert.False(t, registry.Active("client-1"))
}

func TestRegistry_ClearUnknownIdentityIsNoop(t *testing.T) {
	registry := NewRegistry(quietLogger())

	assert.NotPanics(t, func() {
		registry.Clear("never-registered")
		registry.Clear("never-registered")
	})
}

func TestRegistry_DispatchWithoutSubscriptionIsNoop(t *testing.T) {
	registry := NewRegistry(quietLogger())

	assert.NotPanics(t, func() {
		registry.Dispatch("client-1", githubCommitEvent())
	})
}

func TestRegistry_PanickingCallbackIsIsolated(t *testing.T) {
	registry := NewRegistry(quietLogger())

	registry.Register("client-1", Criteria{}, func(*events.TriggerEvent) {
		panic("subscriber bug")
	})

	assert.NotPanics(t, func() {
		registry.Dispatch("client-1", githubCommitEvent())
	})

	// Delivery keeps working after the faulty invocation.
	var calls int

	registry.Register("client-1", Criteria{}, func(*events.TriggerEvent) {
		calls++
	})

	registry.Dispatch("client-1", githubCommitEvent())

	assert.Equal(t, 1, calls)
}

func TestRegistry_IdentitiesAreIndependent(t *testing.T) {
	registry := NewRegistry(quietLogger())

	var aCalls, bCalls int

	registry.Register("client-a", Criteria{}, func(*events.TriggerEvent) { aCalls++ })
	registry.Register("client-b", Criteria{}, func(*events.TriggerEvent) { bCalls++ })

	registry.Dispatch("client-a", githubCommitEvent())

	assert.Equal(t, 1, aCalls)
	assert.Zero(t, bCalls)
}
