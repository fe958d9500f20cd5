package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI compatible chat completion endpoint, such
// as OpenRouter or a local proxy, depending on the base URL.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIClient(s Settings) *OpenAIClient {
	cfg := openai.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: s.Timeout}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       s.Model,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", c.wrap(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", emptyReply(ProviderOpenAI, c.model)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) wrap(err error) error {
	pe := &ProviderError{Provider: ProviderOpenAI, Model: c.model, Detail: err.Error(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.Status = apiErr.HTTPStatusCode
		pe.Detail = apiErr.Message
	case errors.As(err, &reqErr):
		pe.Status = reqErr.HTTPStatusCode
	}
	return pe
}
