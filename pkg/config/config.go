// Package config loads runtime configuration from the environment, the way
// the teacher's process bootstrap does (github.com/caarlos0/env/v11 struct
// tags), rather than hand-rolling flag parsing or an ini reader.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// MemoryConfig controls the optional semantic-search layer on top of the
// spec-mandated lexical memory index (SPEC_FULL.md §4.12).
type MemoryConfig struct {
	SemanticSearch bool   `env:"MEMORY_SEMANTIC_SEARCH" envDefault:"false"`
	EmbeddingModel string `env:"MEMORY_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

// ToolsConfig gates optional tool registrations.
type ToolsConfig struct {
	Memory     MemoryConfig
	AllowExec  bool `env:"TOOLS_ALLOW_EXEC" envDefault:"true"`
	ExecDir    string `env:"TOOLS_EXEC_DIR" envDefault:""`
}

// ProviderConfig configures the LLM providers (SPEC_FULL.md §4.10).
type ProviderConfig struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5"`

	OpenAICompatBaseURL string `env:"OPENAI_COMPAT_BASE_URL"`
	OpenAICompatAPIKey  string `env:"OPENAI_COMPAT_API_KEY"`
	OpenAICompatModel   string `env:"OPENAI_COMPAT_MODEL" envDefault:"gpt-4o-mini"`

	FallbackEnabled bool `env:"PROVIDER_FALLBACK_ENABLED" envDefault:"false"`
}

// CronConfig configures the durable cron store (SPEC_FULL.md §4.16).
type CronConfig struct {
	JobsFile string `env:"CRON_JOBS_FILE" envDefault:"cron/jobs.json"`
}

// HeartbeatConfig configures the heartbeat service (SPEC_FULL.md §4.9).
type HeartbeatConfig struct {
	IntervalSeconds int `env:"HEARTBEAT_INTERVAL_SECONDS" envDefault:"0"`
}

// MCPConfig lists MCP server SSE endpoints to bridge as tools.
type MCPConfig struct {
	ServerURIs []string `env:"MCP_SERVER_URIS" envSeparator:","`
}

// Config is the top-level, env-sourced configuration for the runtime,
// assembled from nested section structs. The sections carry no envPrefix:
// each field is read from the variable named in its own env tag.
type Config struct {
	Workspace     string `env:"WORKSPACE" envDefault:"."`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	MaxIterations int    `env:"MAX_ITERATIONS" envDefault:"25"`
	ContextWindow int    `env:"CONTEXT_WINDOW" envDefault:"50"`

	Tools     ToolsConfig
	Providers ProviderConfig
	Cron      CronConfig
	Heartbeat HeartbeatConfig
	MCP       MCPConfig
}

// Load parses Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
