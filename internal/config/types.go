package config

// Config is the root configuration for knowbase.
type Config struct {
	AI         AIConfig          `yaml:"ai,omitempty"`
	Thresholds ThresholdsConfig  `yaml:"thresholds,omitempty"`
	Gateway    GatewayConfig     `yaml:"gateway,omitempty"`
	Storage    StorageConfig     `yaml:"storage,omitempty"`
	Domains    DomainsConfig     `yaml:"domains,omitempty"`
	Logging    LoggingConfig     `yaml:"logging,omitempty"`
	Prompts    map[string]string `yaml:"prompts,omitempty"`
}

// AIConfig selects the analysis backend and its model parameters.
type AIConfig struct {
	// Provider is "gemini" or "mock". With "mock" every analysis
	// capability returns canned responses and no network calls happen.
	Provider string `yaml:"provider,omitempty"`
	APIKey   string `yaml:"apiKey,omitempty"`

	// Defaults applies to every agent unless overridden below.
	Defaults ModelEntry `yaml:"defaults,omitempty"`

	// Per-agent model overrides.
	Router ModelEntry `yaml:"router,omitempty"`
	Intake ModelEntry `yaml:"intake,omitempty"`
	Drafts ModelEntry `yaml:"drafts,omitempty"`
}

// ModelEntry defines one model and its generation parameters. Zero
// fields fall back to the defaults entry.
type ModelEntry struct {
	Model           string   `yaml:"model,omitempty"`
	Temperature     *float64 `yaml:"temperature,omitempty"`
	TopP            *float64 `yaml:"topP,omitempty"`
	TopK            *int     `yaml:"topK,omitempty"`
	MaxOutputTokens int      `yaml:"maxOutputTokens,omitempty"`
}

// ThresholdsConfig holds the pipeline decision thresholds.
type ThresholdsConfig struct {
	// Relevance is the minimum score content must exceed against a
	// domain before facts are extracted from it.
	Relevance float64 `yaml:"relevance,omitempty"`
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port int    `yaml:"port,omitempty"`
	Bind string `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	// CustomBindHost is used when bind is "custom".
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
}

// GatewayAuth configures bearer-token access to the gateway.
type GatewayAuth struct {
	// Token, when set, is required as "Authorization: Bearer <token>"
	// on every request except the health check.
	Token string `yaml:"token,omitempty"`
}

// StorageConfig configures the sqlite database and export output.
type StorageConfig struct {
	// Path overrides the default database location under the data dir.
	Path string `yaml:"path,omitempty"`
	// ExportDir overrides where markdown exports are written.
	ExportDir string `yaml:"exportDir,omitempty"`
}

// DomainsConfig controls the domain lifecycle machine.
type DomainsConfig struct {
	// Persist enables writing confirmed drafts to storage. When off,
	// confirmed drafts report success without touching the database.
	Persist *bool `yaml:"persist,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// PersistDomains reports whether confirmed drafts are written to
// storage. Persistence defaults to on.
func (c *Config) PersistDomains() bool {
	if c.Domains.Persist == nil {
		return true
	}
	return *c.Domains.Persist
}

// ModelFor merges an agent's model entry over the defaults.
func (a AIConfig) ModelFor(agent string) ModelEntry {
	var override ModelEntry
	switch agent {
	case "router":
		override = a.Router
	case "intake":
		override = a.Intake
	case "drafts":
		override = a.Drafts
	}

	merged := a.Defaults
	if override.Model != "" {
		merged.Model = override.Model
	}
	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}
	if override.TopP != nil {
		merged.TopP = override.TopP
	}
	if override.TopK != nil {
		merged.TopK = override.TopK
	}
	if override.MaxOutputTokens != 0 {
		merged.MaxOutputTokens = override.MaxOutputTokens
	}
	return merged
}
