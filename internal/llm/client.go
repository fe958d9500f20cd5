package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// Providers lists the provider names New accepts.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama}

var ErrEmptyReply = errors.New("model returned an empty reply")

// Client sends one prompt to a language model and returns its raw reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Settings configures a provider client.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	// Timeout bounds one request. Zero leaves requests unbounded.
	Timeout time.Duration
}

// New builds the client for s.Provider, instrumented with request metrics.
func New(ctx context.Context, s Settings) (Client, error) {
	var (
		c   Client
		err error
	)
	switch strings.ToLower(s.Provider) {
	case ProviderOpenAI:
		c = NewOpenAIClient(s)
	case ProviderAnthropic:
		c = NewAnthropicClient(s)
	case ProviderGemini:
		c, err = NewGeminiClient(ctx, s)
	case ProviderOllama:
		c, err = NewOllamaClient(s)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithMetrics(c, strings.ToLower(s.Provider), s.Model), nil
}

// ProviderError describes a failed model call with whatever detail the
// provider returned.
type ProviderError struct {
	Provider string
	Model    string
	// Status is the HTTP status of the failed call, when known.
	Status int
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Model, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Model, e.Detail)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func emptyReply(provider string, model string) error {
	return &ProviderError{Provider: provider, Model: model, Detail: ErrEmptyReply.Error(), Err: ErrEmptyReply}
}

// withTimeout bounds ctx by the configured timeout, if any.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
