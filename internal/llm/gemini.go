package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, s Settings) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{}
	if s.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(s.MaxTokens)
	}
	if s.Temperature > 0 {
		cfg.Temperature = genai.Ptr(s.Temperature)
	}

	return &GeminiClient{client: client, model: s.Model, config: cfg, timeout: s.Timeout}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		c.config)
	if err != nil {
		return "", c.wrap(err)
	}

	text := resp.Text()
	if text == "" {
		return "", emptyReply(ProviderGemini, c.model)
	}
	return text, nil
}

func (c *GeminiClient) wrap(err error) error {
	pe := &ProviderError{Provider: ProviderGemini, Model: c.model, Detail: err.Error(), Err: err}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		pe.Status = apiErr.Code
		pe.Detail = apiErr.Message
	}
	return pe
}
