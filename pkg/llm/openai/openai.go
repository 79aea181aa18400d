// Package openai provides an llm.Generator for OpenAI-compatible Chat
// Completions APIs. Transport failures are retried with exponential
// backoff; semantically invalid success responses are not.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ahoffer/cogito/pkg/llm"
)

const completionsPath = "/chat/completions"

var _ llm.Generator = (*Adapter)(nil)

// Adapter implements llm.Generator for the Chat Completions wire format.
type Adapter struct {
	cfg    llm.Config
	client *http.Client
	log    *slog.Logger

	// sleepFunc is used for testing; defaults to a context-aware sleep.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// New creates an Adapter from a validated configuration. A nil logger
// falls back to slog.Default.
func New(cfg llm.Config, log *slog.Logger) (*Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("openai: base URL is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		client:    &http.Client{},
		log:       log,
		sleepFunc: contextSleep,
	}, nil
}

// SetSleepFunc overrides the backoff sleep (for testing).
func (a *Adapter) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	a.sleepFunc = fn
}

// endpoint normalizes the base URL into the chat-completions endpoint,
// tolerating bases given with or without the /v1 suffix.
func (a *Adapter) endpoint() string {
	base := strings.TrimRight(a.cfg.BaseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + completionsPath
	}
	return base + "/v1" + completionsPath
}

// --- wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText sends the prompt (with an optional leading system message)
// and returns the first choice's message content. Connection errors,
// timeouts, and non-2xx statuses are retried up to MaxRetries total
// attempts, sleeping RetryDelay*2^n before retry n+1; after exhaustion the
// last failure is wrapped in *llm.ExhaustedError.
func (a *Adapter) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{
		Model:       a.cfg.Model,
		Messages:    messages,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	var lastErr error
	for attempt := range a.cfg.MaxRetries {
		text, err := a.post(ctx, payload)
		if err == nil {
			return text, nil
		}

		var shape *llm.ResponseShapeError
		if errors.As(err, &shape) {
			return "", err
		}

		lastErr = err
		a.log.Warn("chat completion request failed",
			"attempt", attempt+1,
			"max_attempts", a.cfg.MaxRetries,
			"error", err,
		)

		if attempt < a.cfg.MaxRetries-1 {
			backoff := a.cfg.RetryDelay * (1 << attempt)
			if err := a.sleepFunc(ctx, backoff); err != nil {
				return "", &llm.ExhaustedError{Attempts: attempt + 1, Last: err}
			}
		}
	}

	return "", &llm.ExhaustedError{Attempts: a.cfg.MaxRetries, Last: lastErr}
}

// post performs one request attempt and extracts the reply text.
func (a *Adapter) post(ctx context.Context, payload []byte) (string, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "cogito/1.0")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", &llm.ResponseShapeError{Provider: "openai", Reason: fmt.Sprintf("decode body: %v", err)}
	}

	if len(cr.Choices) == 0 {
		return "", &llm.ResponseShapeError{Provider: "openai", Reason: "empty choices"}
	}
	if cr.Choices[0].Message.Content == nil {
		return "", &llm.ResponseShapeError{Provider: "openai", Reason: "first choice has no message content"}
	}

	return *cr.Choices[0].Message.Content, nil
}

// contextSleep sleeps for d or until ctx is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
