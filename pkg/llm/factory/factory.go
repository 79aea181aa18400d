// Package factory constructs an llm.Client for a named provider backend.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahoffer/cogito/pkg/llm"
	"github.com/ahoffer/cogito/pkg/llm/gemini"
	"github.com/ahoffer/cogito/pkg/llm/openai"
)

// CloseFunc releases resources held by a provider backend. It is a no-op
// for backends without long-lived connections.
type CloseFunc func() error

// New validates cfg, builds the transport for cfg.Provider, and wraps it
// in a Gateway. Construction errors are the caller's problem; they mark
// broken deployment configuration.
func New(ctx context.Context, cfg llm.Config, log *slog.Logger) (*llm.Gateway, CloseFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch cfg.Provider {
	case llm.ProviderOpenAI:
		gen, err := openai.New(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return llm.NewGateway(gen, log), func() error { return nil }, nil

	case llm.ProviderGemini:
		gen, err := gemini.New(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return llm.NewGateway(gen, log), gen.Close, nil

	default:
		return nil, nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
