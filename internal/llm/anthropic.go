package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultAnthropicMaxTokens = 1024

type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewAnthropicClient(s Settings) *AnthropicClient {
	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: s.Timeout}),
	}
	if s.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(s.BaseURL))
	}

	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(s.APIKey, opts...),
		model:       s.Model,
		maxTokens:   maxTokens,
		temperature: s.Temperature,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
		MaxTokens: c.maxTokens,
	}
	if c.temperature > 0 {
		req.Temperature = &c.temperature
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", c.wrap(err)
	}

	var sb strings.Builder
	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			sb.WriteString(content.GetText())
		}
	}
	if sb.Len() == 0 {
		return "", emptyReply(ProviderAnthropic, c.model)
	}
	return sb.String(), nil
}

func (c *AnthropicClient) wrap(err error) error {
	pe := &ProviderError{Provider: ProviderAnthropic, Model: c.model, Detail: err.Error(), Err: err}

	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		pe.Status = reqErr.StatusCode
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		pe.Detail = apiErr.Message
	}
	return pe
}
