// Package config loads the application configuration from YAML.
// Environment variables referenced as ${VAR} or $VAR are expanded before
// parsing, so API keys can live in the environment (e.g. from a .env file)
// rather than in the config file. The loaded Config is an immutable value
// handed to constructors; there is no global configuration state.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahoffer/cogito/pkg/llm"
)

// Config is the top-level application configuration.
type Config struct {
	ModelsDir string    `yaml:"models_dir"`
	LogLevel  string    `yaml:"log_level"`
	LLM       LLMConfig `yaml:"llm"`
	Web       WebConfig `yaml:"web"`
}

// LLMConfig describes the LLM provider backend. Durations are written as
// strings ("30s", "500ms").
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     string  `yaml:"timeout"`
	MaxRetries  int     `yaml:"max_retries"`
	RetryDelay  string  `yaml:"retry_delay"`
}

// WebConfig holds the web server bind settings.
type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ModelsDir: "models",
		LogLevel:  "info",
		LLM: LLMConfig{
			Provider:    string(llm.ProviderOpenAI),
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   2000,
			Timeout:     "30s",
			MaxRetries:  3,
			RetryDelay:  "1s",
		},
		Web: WebConfig{Host: "127.0.0.1", Port: 8000},
	}
}

// Load reads a YAML file over the defaults. Zero-valued fields keep their
// defaults; set fields win.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load %q: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills fields an explicit config file left empty.
func (c *Config) applyDefaults() {
	def := Default()

	if c.ModelsDir == "" {
		c.ModelsDir = def.ModelsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = def.LLM.Timeout
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = def.LLM.MaxRetries
	}
	if c.LLM.RetryDelay == "" {
		c.LLM.RetryDelay = def.LLM.RetryDelay
	}
	if c.Web.Host == "" {
		c.Web.Host = def.Web.Host
	}
	if c.Web.Port == 0 {
		c.Web.Port = def.Web.Port
	}
}

// ClientConfig converts the YAML settings into a validated llm.Config.
func (c Config) ClientConfig() (llm.Config, error) {
	timeout, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return llm.Config{}, fmt.Errorf("config: llm timeout: %w", err)
	}

	delay, err := time.ParseDuration(c.LLM.RetryDelay)
	if err != nil {
		return llm.Config{}, fmt.Errorf("config: llm retry delay: %w", err)
	}

	cfg := llm.Config{
		Provider:    llm.Provider(c.LLM.Provider),
		BaseURL:     c.LLM.BaseURL,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     timeout,
		MaxRetries:  c.LLM.MaxRetries,
		RetryDelay:  delay,
	}

	if err := cfg.Validate(); err != nil {
		return llm.Config{}, err
	}

	return cfg, nil
}

// Addr returns the web server bind address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
