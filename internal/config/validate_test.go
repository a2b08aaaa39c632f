package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidateProvider(t *testing.T) {
	cfg := Defaults()
	cfg.AI.Provider = "openai"

	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "ai.provider", issues[0].Path)
}

func TestValidateGeminiRequiresKey(t *testing.T) {
	cfg := Defaults()
	cfg.AI.Provider = "gemini"

	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "ai.apiKey", issues[0].Path)

	cfg.AI.APIKey = "k"
	assert.Empty(t, Validate(&cfg))
}

func TestValidateModelParams(t *testing.T) {
	temp := 3.5
	topP := 1.5
	cfg := Defaults()
	cfg.AI.Router.Temperature = &temp
	cfg.AI.Intake.TopP = &topP

	issues := Validate(&cfg)
	paths := make([]string, len(issues))
	for i, issue := range issues {
		paths[i] = issue.Path
	}
	assert.Contains(t, paths, "ai.router.temperature")
	assert.Contains(t, paths, "ai.intake.topP")
}

func TestValidateThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.Thresholds.Relevance = 1.2

	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "thresholds.relevance", issues[0].Path)
}

func TestValidateGateway(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = 70000
	cfg.Gateway.Bind = "tailnet"

	issues := Validate(&cfg)
	paths := make([]string, len(issues))
	for i, issue := range issues {
		paths[i] = issue.Path
	}
	assert.Contains(t, paths, "gateway.port")
	assert.Contains(t, paths, "gateway.bind")
}

func TestValidateCustomBindNeedsHost(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Bind = "custom"

	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "gateway.customBindHost", issues[0].Path)

	cfg.Gateway.CustomBindHost = "10.0.0.5"
	assert.Empty(t, Validate(&cfg))
}

func TestValidateLogging(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	cfg.Logging.ConsoleStyle = "compact"

	issues := Validate(&cfg)
	paths := make([]string, len(issues))
	for i, issue := range issues {
		paths[i] = issue.Path
	}
	assert.Contains(t, paths, "logging.level")
	assert.Contains(t, paths, "logging.consoleStyle")
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "gateway.port", Message: "bad"}
	assert.Equal(t, "gateway.port: bad", issue.String())
}
