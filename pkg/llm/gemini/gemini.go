// Package gemini provides an llm.Generator backed by the Google Gemini
// SDK. The SDK owns transport and retries, so this adapter only shapes
// prompts and extracts reply text.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ahoffer/cogito/pkg/llm"
)

var _ llm.Generator = (*Adapter)(nil)

// Adapter implements llm.Generator for the Gemini API.
type Adapter struct {
	client *genai.Client
	cfg    llm.Config
	log    *slog.Logger
}

// New creates an Adapter and its underlying SDK client. The client holds a
// connection and should be released with Close.
func New(ctx context.Context, cfg llm.Config, log *slog.Logger) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Adapter{client: client, cfg: cfg, log: log}, nil
}

// Close releases the SDK client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// GenerateText sends the prompt and returns the first candidate's text.
// Gemini has no separate system role in this flow; a system prompt is
// folded in ahead of the user prompt, matching FoldPrompt.
func (a *Adapter) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	model := a.client.GenerativeModel(a.cfg.Model)
	model.SetTemperature(float32(a.cfg.Temperature))
	model.SetMaxOutputTokens(int32(a.cfg.MaxTokens))

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(FoldPrompt(prompt, systemPrompt)))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	return text, nil
}

// FoldPrompt merges an optional system prompt into the user prompt.
func FoldPrompt(prompt, systemPrompt string) string {
	if systemPrompt == "" {
		return prompt
	}
	return systemPrompt + "\n\n" + prompt
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &llm.ResponseShapeError{Provider: "gemini", Reason: "empty candidates"}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	if b.Len() == 0 {
		return "", &llm.ResponseShapeError{Provider: "gemini", Reason: "no text parts in first candidate"}
	}

	return b.String(), nil
}
