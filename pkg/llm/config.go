package llm

import (
	"fmt"
	"time"
)

// Provider names a backend implementation.
type Provider string

const (
	// ProviderOpenAI is the generic chat-completions HTTP backend. It works
	// against any OpenAI-compatible endpoint.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini SDK backend.
	ProviderGemini Provider = "gemini"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderGemini:
		return true
	}
	return false
}

// Config holds one provider's request settings. It is an immutable value
// passed into constructors; there is no process-wide configuration state.
type Config struct {
	Provider    Provider
	BaseURL     string // API base URL; required for the HTTP provider.
	APIKey      string
	Model       string
	Temperature float64       // Sampling temperature, 0.0-2.0.
	MaxTokens   int           // Maximum tokens in the response.
	Timeout     time.Duration // Per-attempt request timeout (0 = none).
	MaxRetries  int           // Total attempts for transport failures.
	RetryDelay  time.Duration // Base delay; doubles per attempt.
}

// Validate checks bounds at configuration time so request paths never have
// to. A Config that fails validation is a deployment error, not a runtime
// condition.
func (c Config) Validate() error {
	if !c.Provider.Valid() {
		return fmt.Errorf("llm: config: unknown provider %q", c.Provider)
	}
	if c.Provider == ProviderOpenAI && c.BaseURL == "" {
		return fmt.Errorf("llm: config: base URL is required for provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("llm: config: model name is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm: config: temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("llm: config: max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("llm: config: max retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("llm: config: retry delay must not be negative")
	}

	return nil
}
