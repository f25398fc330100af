package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithEnvKey(t *testing.T) {
	t.Setenv("RELAYKIT_API_KEY", "key-from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.APIKey)
	assert.Equal(t, "https://api.relaykit.dev", cfg.BaseURL)
	assert.Equal(t, "websocket", cfg.Realtime.Provider)
	assert.Equal(t, "wss://realtime.relaykit.dev/ws", cfg.Realtime.GatewayURL)
}

func TestLoad_MissingAPIKeyFails(t *testing.T) {
	t.Setenv("RELAYKIT_API_KEY", "")

	_, err := Load("")

	require.Error(t, err)
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relaykit.yaml")
	content := `
api_key: key-from-file
base_url: https://registry.internal.example.com
log_level: debug
realtime:
  provider: kafka
  kafka_brokers:
    - broker-1:9092
    - broker-2:9092
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("RELAYKIT_API_KEY", "key-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file.
	assert.Equal(t, "key-from-env", cfg.APIKey)
	assert.Equal(t, "https://registry.internal.example.com", cfg.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "kafka", cfg.Realtime.Provider)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Realtime.KafkaBrokers)
}

func TestLoad_KafkaBrokersFromEnv(t *testing.T) {
	t.Setenv("RELAYKIT_API_KEY", "key")
	t.Setenv("RELAYKIT_REALTIME_PROVIDER", "kafka")
	t.Setenv("RELAYKIT_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Realtime.KafkaBrokers)
}

func TestValidate_ProviderSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:   "websocket_with_gateway",
			mutate: func(*Config) {},
		},
		{
			name: "unknown_provider",
			mutate: func(cfg *Config) {
				cfg.Realtime.Provider = "carrier-pigeon"
			},
			wantErr: true,
		},
		{
			name: "kafka_without_brokers",
			mutate: func(cfg *Config) {
				cfg.Realtime.Provider = "kafka"
			},
			wantErr: true,
		},
		{
			name: "nats_without_url",
			mutate: func(cfg *Config) {
				cfg.Realtime.Provider = "nats"
			},
			wantErr: true,
		},
		{
			name: "redis_without_addr",
			mutate: func(cfg *Config) {
				cfg.Realtime.Provider = "redis"
			},
			wantErr: true,
		},
		{
			name: "gochannel_needs_nothing",
			mutate: func(cfg *Config) {
				cfg.Realtime.Provider = "gochannel"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIKey = "key"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}
