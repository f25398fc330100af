package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, event *TriggerEvent)
	}{
		{
			name: "full_event",
			raw: `{
				"appName": "github",
				"metadata": {
					"id": "ti_123",
					"triggerName": "GITHUB_COMMIT_EVENT",
					"connectionId": "conn_9",
					"connection": {
						"clientUniqueUserId": "user-1",
						"integrationId": "int_4"
					}
				},
				"payload": {"ref": "refs/heads/main"}
			}`,
			check: func(t *testing.T, event *TriggerEvent) {
				t.Helper()
				assert.Equal(t, "github", event.AppName)
				assert.Equal(t, "ti_123", event.Metadata.ID)
				assert.Equal(t, "GITHUB_COMMIT_EVENT", event.Metadata.TriggerName)
				assert.Equal(t, "conn_9", event.Metadata.ConnectionID)
				assert.Equal(t, "user-1", event.EntityID())
				assert.Equal(t, "int_4", event.IntegrationID())
				assert.Equal(t, "refs/heads/main", event.Payload["ref"])
			},
		},
		{
			name: "missing_connection",
			raw:  `{"appName": "slack", "metadata": {"id": "ti_7", "triggerName": "SLACK_MESSAGE"}}`,
			check: func(t *testing.T, event *TriggerEvent) {
				t.Helper()
				assert.Nil(t, event.Metadata.Connection)
				assert.Empty(t, event.EntityID())
				assert.Empty(t, event.IntegrationID())
			},
		},
		{
			name: "missing_metadata",
			raw:  `{"appName": "slack"}`,
			check: func(t *testing.T, event *TriggerEvent) {
				t.Helper()
				assert.Empty(t, event.Metadata.ID)
			},
		},
		{
			name:    "empty_payload",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "malformed_json",
			raw:     `{"appName": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Parse([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			tt.check(t, event)
		})
	}
}
