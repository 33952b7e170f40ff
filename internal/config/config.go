// Package config loads agentaudit configuration from YAML. A missing
// file falls back to defaults; invalid YAML is an error. The API key
// resolves from the file or the GROQ_API_KEY environment variable and
// is never written back, logged, or exported.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OracleConfig holds connection parameters for the scoring capability.
type OracleConfig struct {
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WebhookConfig holds the optional verdict notification endpoint.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// Config holds all configurable parameters.
type Config struct {
	Oracle      OracleConfig  `yaml:"oracle"`
	JournalPath string        `yaml:"journal_path"`
	Webhook     WebhookConfig `yaml:"webhook"`
}

// DefaultConfig returns the built-in defaults: Groq's OpenAI-compatible
// endpoint and the journal under the user's config directory.
func DefaultConfig() *Config {
	return &Config{
		Oracle: OracleConfig{
			APIURL:         "https://api.groq.com/openai/v1/chat/completions",
			Model:          "llama-3.3-70b-versatile",
			TimeoutSeconds: 60,
		},
		JournalPath: filepath.Join(defaultDir(), "sessions.jsonl"),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "agentaudit")
	}
	return filepath.Join(home, ".agentaudit")
}

// Load reads configuration from a YAML file. Empty path falls back to
// DefaultPath. Missing file returns defaults. Invalid YAML returns an
// error. The GROQ_API_KEY environment variable overrides the file's
// api_key when set.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		// Start with defaults, YAML overwrites only specified fields.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.Oracle.APIKey = key
	}
	return cfg, nil
}

// OracleTimeout returns the configured oracle timeout as a duration.
func (c *Config) OracleTimeout() time.Duration {
	if c.Oracle.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}
