package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultOllamaURL = "http://localhost:11434"

type OllamaClient struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOllamaClient(s Settings) (*OllamaClient, error) {
	base := s.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	// The native client wants the server root, not the OpenAI compatible /v1 path.
	base = strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/v1")

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama url %q: %w", base, err)
	}

	return &OllamaClient{
		client:      api.NewClient(u, &http.Client{Timeout: s.Timeout}),
		model:       s.Model,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
	}, nil
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	options := map[string]any{}
	if c.maxTokens > 0 {
		options["num_predict"] = c.maxTokens
	}
	if c.temperature > 0 {
		options["temperature"] = c.temperature
	}

	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options:  options,
	}

	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		return "", c.wrap(err)
	}

	if resp.Message.Content == "" {
		return "", emptyReply(ProviderOllama, c.model)
	}
	return resp.Message.Content, nil
}

func (c *OllamaClient) wrap(err error) error {
	pe := &ProviderError{Provider: ProviderOllama, Model: c.model, Detail: err.Error(), Err: err}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		pe.Status = statusErr.StatusCode
		if statusErr.ErrorMessage != "" {
			pe.Detail = statusErr.ErrorMessage
		}
	}
	return pe
}
