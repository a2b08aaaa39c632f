// Package config loads and validates the knowbase configuration from
// YAML, the environment, and an optional .env file.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		AI: AIConfig{
			Provider: "mock",
			Defaults: ModelEntry{
				Model:           "gemini-2.0-flash",
				MaxOutputTokens: 8192,
			},
		},
		Thresholds: ThresholdsConfig{
			Relevance: 0.7,
		},
		Gateway: GatewayConfig{
			Port: 18890,
			Bind: "loopback",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
