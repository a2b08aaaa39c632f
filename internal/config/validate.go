package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	validProviders := []string{"gemini", "mock"}
	if cfg.AI.Provider != "" && !slices.Contains(validProviders, cfg.AI.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "ai.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.AI.Provider),
		})
	}
	if cfg.AI.Provider == "gemini" && cfg.AI.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "ai.apiKey",
			Message: "required when ai.provider is gemini (or set GEMINI_API_KEY)",
		})
	}
	for _, entry := range []struct {
		path  string
		model ModelEntry
	}{
		{"ai.defaults", cfg.AI.Defaults},
		{"ai.router", cfg.AI.Router},
		{"ai.intake", cfg.AI.Intake},
		{"ai.drafts", cfg.AI.Drafts},
	} {
		if entry.model.Temperature != nil && (*entry.model.Temperature < 0 || *entry.model.Temperature > 2) {
			issues = append(issues, ValidationIssue{
				Path:    entry.path + ".temperature",
				Message: fmt.Sprintf("must be 0-2, got %v", *entry.model.Temperature),
			})
		}
		if entry.model.TopP != nil && (*entry.model.TopP < 0 || *entry.model.TopP > 1) {
			issues = append(issues, ValidationIssue{
				Path:    entry.path + ".topP",
				Message: fmt.Sprintf("must be 0-1, got %v", *entry.model.TopP),
			})
		}
	}

	if cfg.Thresholds.Relevance < 0 || cfg.Thresholds.Relevance > 1 {
		issues = append(issues, ValidationIssue{
			Path:    "thresholds.relevance",
			Message: fmt.Sprintf("must be 0-1, got %v", cfg.Thresholds.Relevance),
		})
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.customBindHost",
			Message: "required when gateway.bind is custom",
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
