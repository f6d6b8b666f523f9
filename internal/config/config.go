// Package config loads and validates focusflow configuration.
// Configuration comes from a YAML file with environment-variable overrides;
// every field has a sensible default so the zero config file works.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all focusflow configuration.
type Config struct {
	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Pipeline tuning
	Pipeline PipelineConfig `yaml:"pipeline"`

	// HTTP server binding
	Server ServerConfig `yaml:"server"`

	// SQLite persistence
	Storage StorageConfig `yaml:"storage"`

	// Category logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the LLM provider.
type LLMConfig struct {
	// Provider is one of: gemini, openai, none. "none" disables LLM calls
	// entirely; every stage runs its deterministic fallback.
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`

	Timeouts LLMTimeouts `yaml:"timeouts"`
}

// PipelineConfig tunes the capture pipeline.
type PipelineConfig struct {
	// MaxInputChars is the normalizer's input size cap.
	MaxInputChars int `yaml:"max_input_chars"`

	// RuleThreshold is the confidence at which the keyword rule pass is
	// accepted without an LLM call, and also the UNKNOWN confidence floor.
	RuleThreshold float64 `yaml:"rule_threshold"`

	// MinSteps/MaxSteps bound the decomposer target (LLM is asked for 3-7).
	MinSteps int `yaml:"min_steps"`
	MaxSteps int `yaml:"max_steps"`
}

// ServerConfig configures the HTTP binding.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig configures SQLite persistence.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures category file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "none",
			Model:    "",
			Timeouts: DefaultLLMTimeouts(),
		},
		Pipeline: PipelineConfig{
			MaxInputChars: 5000,
			RuleThreshold: 0.75,
			MinSteps:      3,
			MaxSteps:      7,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DatabasePath: ".focusflow/focusflow.db",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from a YAML file, applies defaults for missing
// fields, then applies environment overrides. A missing file is not an error;
// defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file settings.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FOCUSFLOW_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("FOCUSFLOW_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("FOCUSFLOW_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("FOCUSFLOW_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FOCUSFLOW_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("FOCUSFLOW_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}

// Validate checks invariants that would otherwise fail deep in the pipeline.
func (c *Config) Validate() error {
	if c.Pipeline.MaxInputChars <= 0 {
		return fmt.Errorf("pipeline.max_input_chars must be positive, got %d", c.Pipeline.MaxInputChars)
	}
	if c.Pipeline.RuleThreshold <= 0 || c.Pipeline.RuleThreshold > 1 {
		return fmt.Errorf("pipeline.rule_threshold must be in (0,1], got %f", c.Pipeline.RuleThreshold)
	}
	if c.Pipeline.MinSteps < 1 || c.Pipeline.MaxSteps < c.Pipeline.MinSteps {
		return fmt.Errorf("pipeline step bounds invalid: min=%d max=%d", c.Pipeline.MinSteps, c.Pipeline.MaxSteps)
	}
	switch c.LLM.Provider {
	case "gemini", "openai", "none", "":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	return nil
}
