package triggers

import (
	"strings"

	"github.com/relaykit/relaykit-go/pkg/events"
)

// Criteria narrows which trigger events reach a subscriber's callback. Every
// field is optional; an empty field imposes no constraint on its dimension,
// so the zero Criteria matches every event. Set fields are compared
// case-insensitively against the corresponding event attribute, and a set
// field whose attribute is missing from the event fails closed.
type Criteria struct {
	AppName       string
	TriggerID     string
	ConnectionID  string
	TriggerName   string
	EntityID      string
	IntegrationID string
}

// IsZero reports whether no dimension is constrained.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Matches decides whether event should be dispatched under these criteria.
// Pure and side-effect free.
func (c Criteria) Matches(event *events.TriggerEvent) bool {
	if event == nil {
		return c.IsZero()
	}

	return fieldMatches(c.AppName, event.AppName) &&
		fieldMatches(c.TriggerID, event.Metadata.ID) &&
		fieldMatches(c.ConnectionID, event.Metadata.ConnectionID) &&
		fieldMatches(c.TriggerName, event.Metadata.TriggerName) &&
		fieldMatches(c.EntityID, event.EntityID()) &&
		fieldMatches(c.IntegrationID, event.IntegrationID())
}

func fieldMatches(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}
