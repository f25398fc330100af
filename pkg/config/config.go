// Package config provides SDK configuration loading from the environment
// and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Realtime selects and configures the realtime transport provider.
type Realtime struct {
	Provider     string   `yaml:"provider"     validate:"required,oneof=gochannel kafka nats redis websocket"`
	GatewayURL   string   `yaml:"gateway_url"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	NATSURL      string   `yaml:"nats_url"`
	RedisAddr    string   `yaml:"redis_addr"`
}

// Config is the full SDK configuration.
type Config struct {
	APIKey   string   `yaml:"api_key"   validate:"required"`
	BaseURL  string   `yaml:"base_url"  validate:"required,url"`
	LogLevel string   `yaml:"log_level"`
	Realtime Realtime `yaml:"realtime"`
}

// Default returns the configuration for the hosted platform; only the API
// key remains to be filled in.
func Default() *Config {
	return &Config{
		BaseURL:  "https://api.relaykit.dev",
		LogLevel: "info",
		Realtime: Realtime{
			Provider:   "websocket",
			GatewayURL: "wss://realtime.relaykit.dev/ws",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables, and validates
// the result. Environment always wins.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.APIKey, "RELAYKIT_API_KEY")
	setFromEnv(&c.BaseURL, "RELAYKIT_BASE_URL")
	setFromEnv(&c.LogLevel, "RELAYKIT_LOG_LEVEL")
	setFromEnv(&c.Realtime.Provider, "RELAYKIT_REALTIME_PROVIDER")
	setFromEnv(&c.Realtime.GatewayURL, "RELAYKIT_GATEWAY_URL")
	setFromEnv(&c.Realtime.NATSURL, "RELAYKIT_NATS_URL")
	setFromEnv(&c.Realtime.RedisAddr, "RELAYKIT_REDIS_ADDR")

	if brokers := os.Getenv("RELAYKIT_KAFKA_BROKERS"); brokers != "" {
		c.Realtime.KafkaBrokers = strings.Split(brokers, ",")
	}
}

// Validate checks the configuration, including provider-specific settings.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Realtime.Provider {
	case "kafka":
		if len(c.Realtime.KafkaBrokers) == 0 {
			return fmt.Errorf("invalid configuration: %w", errMissingKafkaBrokers)
		}
	case "nats":
		if c.Realtime.NATSURL == "" {
			return fmt.Errorf("invalid configuration: %w", errMissingNATSURL)
		}
	case "redis":
		if c.Realtime.RedisAddr == "" {
			return fmt.Errorf("invalid configuration: %w", errMissingRedisAddr)
		}
	case "websocket":
		if c.Realtime.GatewayURL == "" {
			return fmt.Errorf("invalid configuration: %w", errMissingGatewayURL)
		}
	}

	return nil
}

func setFromEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
