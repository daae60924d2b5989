// Package config loads claimtriage configuration from YAML with environment
// variable overrides. Missing config files fall back to defaults so the CLI
// works out of the box with only OPENAI_API_KEY set.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all claimtriage configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM gateway configuration
	LLM LLMConfig `yaml:"llm"`

	// Document ingestion
	Ingest IngestConfig `yaml:"ingest"`

	// Session output
	Output OutputConfig `yaml:"output"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the LLM gateway client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// IngestConfig configures document-to-text conversion.
type IngestConfig struct {
	// PDFBinary is the pdftotext executable used for PDF sources.
	PDFBinary string `yaml:"pdf_binary"`
	Timeout   string `yaml:"timeout"`
}

// OutputConfig configures where the session record is written.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, text
	Directory  string          `yaml:"directory"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "claimtriage",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4.1-mini",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  "120s",
		},

		Ingest: IngestConfig{
			PDFBinary: "pdftotext",
			Timeout:   "30s",
		},

		Output: OutputConfig{
			Path: "claims_session_log.json",
		},

		Logging: LoggingConfig{
			Enabled:   false,
			Level:     "info",
			Format:    "text",
			Directory: "logs",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if path := os.Getenv("CLAIMTRIAGE_OUTPUT"); path != "" {
		c.Output.Path = path
	}
}

// LLMTimeout parses the configured gateway timeout, falling back to two
// minutes when unset or malformed.
func (c *Config) LLMTimeout() time.Duration {
	return parseTimeout(c.LLM.Timeout, 2*time.Minute)
}

// IngestTimeout parses the configured ingestion timeout.
func (c *Config) IngestTimeout() time.Duration {
	return parseTimeout(c.Ingest.Timeout, 30*time.Second)
}

func parseTimeout(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
