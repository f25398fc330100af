// Package events defines the trigger event records delivered over the
// realtime transport.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptyPayload = errors.New("empty event payload")

// Connection identifies the connected account a trigger event originated
// from. It may be absent on events emitted by integrations that predate
// connection metadata.
type Connection struct {
	ClientUniqueUserID string `json:"clientUniqueUserId"`
	IntegrationID      string `json:"integrationId"`
}

// Metadata carries the identifying attributes of a trigger event.
type Metadata struct {
	ID           string      `json:"id"`
	TriggerName  string      `json:"triggerName"`
	ConnectionID string      `json:"connectionId"`
	Connection   *Connection `json:"connection,omitempty"`
}

// TriggerEvent is a single trigger firing as delivered by the platform.
// Instances are immutable once parsed; subscribers must treat them as
// read-only.
type TriggerEvent struct {
	AppName  string         `json:"appName"`
	Metadata Metadata       `json:"metadata"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// EntityID returns the client-unique user ID of the originating connection,
// or the empty string when the event carries no connection metadata.
func (e *TriggerEvent) EntityID() string {
	if e.Metadata.Connection == nil {
		return ""
	}

	return e.Metadata.Connection.ClientUniqueUserID
}

// IntegrationID returns the integration ID of the originating connection, or
// the empty string when the event carries no connection metadata.
func (e *TriggerEvent) IntegrationID() string {
	if e.Metadata.Connection == nil {
		return ""
	}

	return e.Metadata.Connection.IntegrationID
}

// Parse decodes a raw transport payload into a TriggerEvent. Events missing
// optional attributes (payload, connection) decode without error; only
// malformed JSON or an empty payload fail.
func Parse(raw []byte) (*TriggerEvent, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}

	var event TriggerEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("failed to parse trigger event: %w", err)
	}

	return &event, nil
}
