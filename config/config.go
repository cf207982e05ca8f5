// Package config provides configuration loading and management for AgentPipe.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML unmarshaling of values like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the complete AgentPipe configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Model    ModelConfig    `yaml:"model"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Address is the listen address (default: ":8080").
	Address string `yaml:"address"`
	// SyncTimeout bounds a whole synchronous pipeline run, distinct from
	// the per-call model timeout.
	SyncTimeout Duration `yaml:"sync_timeout"`
}

// PipelineConfig configures execution behavior.
type PipelineConfig struct {
	// Workers sets the job tracker's worker pool size.
	Workers int `yaml:"workers"`
	// QueueSize sets the async submission queue capacity.
	QueueSize int `yaml:"queue_size"`
	// SectionConcurrency bounds concurrently processed sections per run.
	SectionConcurrency int `yaml:"section_concurrency"`
	// BatchSize is the default group size for batched stages.
	BatchSize int `yaml:"batch_size"`
}

// ModelConfig configures the model invoker.
type ModelConfig struct {
	// Provider selects the invoker backend: "openai", "anthropic" or "mock".
	Provider string `yaml:"provider"`
	// Endpoint overrides the provider base URL (e.g. a local Ollama server
	// exposing the OpenAI API).
	Endpoint string `yaml:"endpoint"`
	// CallTimeout is the maximum time to wait for one model invocation.
	CallTimeout Duration `yaml:"call_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is json or text.
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:     ":8080",
			SyncTimeout: Duration(600 * time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:            4,
			QueueSize:          64,
			SectionConcurrency: 1,
			BatchSize:          3,
		},
		Model: ModelConfig{
			Provider:    "openai",
			CallTimeout: Duration(2 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Server.SyncTimeout <= 0 {
		return fmt.Errorf("server.sync_timeout must be positive")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1")
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("pipeline.queue_size must be at least 1")
	}
	if c.Pipeline.SectionConcurrency < 1 {
		return fmt.Errorf("pipeline.section_concurrency must be at least 1")
	}
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("pipeline.batch_size must be at least 1")
	}
	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("model.provider must be openai, anthropic or mock, got %q", c.Model.Provider)
	}
	if c.Model.CallTimeout <= 0 {
		return fmt.Errorf("model.call_timeout must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// Load reads configuration from a YAML file, applying defaults for unset
// values. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
