package command

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-storyweave/internal/llm"
	"github.com/pixil98/go-storyweave/internal/prompt"
)

type LLMConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	// APIKeyEnv names the environment variable holding the provider key.
	APIKeyEnv   string          `json:"api_key_env"`
	BaseURL     string          `json:"base_url"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
	Timeout     string          `json:"timeout"`
	Templates   TemplatesConfig `json:"templates"`
}

// TemplatesConfig points at files overriding the built-in prompt templates.
type TemplatesConfig struct {
	Baseline           string `json:"baseline"`
	Extended           string `json:"extended"`
	TextInstruction    string `json:"text_instruction"`
	OptionsInstruction string `json:"options_instruction"`
}

func (c *LLMConfig) validate() error {
	el := errors.NewErrorList()

	if !slices.Contains(llm.Providers, c.Provider) {
		el.Add(fmt.Errorf("llm: provider must be one of %v", llm.Providers))
	}
	if c.Model == "" {
		el.Add(fmt.Errorf("llm: model is required"))
	}
	if c.Provider != llm.ProviderOllama && c.APIKeyEnv == "" {
		el.Add(fmt.Errorf("llm: api_key_env is required for provider %q", c.Provider))
	}
	if c.MaxTokens < 0 {
		el.Add(fmt.Errorf("llm: max_tokens must not be negative"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		el.Add(fmt.Errorf("llm: temperature must be between 0 and 2"))
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			el.Add(fmt.Errorf("llm: parsing timeout: %w", err))
		}
	}

	return el.Err()
}

func (c *LLMConfig) settings() (llm.Settings, error) {
	s := llm.Settings{
		Provider:    c.Provider,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}

	if c.APIKeyEnv != "" {
		s.APIKey = os.Getenv(c.APIKeyEnv)
		if s.APIKey == "" {
			return llm.Settings{}, fmt.Errorf("environment variable %s is empty", c.APIKeyEnv)
		}
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return llm.Settings{}, fmt.Errorf("parsing timeout: %w", err)
		}
		s.Timeout = d
	}

	return s, nil
}

func (c *LLMConfig) buildClient(ctx context.Context) (llm.Client, error) {
	s, err := c.settings()
	if err != nil {
		return nil, fmt.Errorf("configuring llm client: %w", err)
	}
	client, err := llm.New(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	return client, nil
}

func (c *TemplatesConfig) buildAssembler() (*prompt.Assembler, error) {
	var tmpls prompt.Templates
	for _, t := range []struct {
		path string
		dst  *string
	}{
		{c.Baseline, &tmpls.Baseline},
		{c.Extended, &tmpls.Extended},
		{c.TextInstruction, &tmpls.TextInstruction},
		{c.OptionsInstruction, &tmpls.OptionsInstruction},
	} {
		if t.path == "" {
			continue
		}
		data, err := os.ReadFile(t.path)
		if err != nil {
			return nil, fmt.Errorf("reading template %q: %w", t.path, err)
		}
		*t.dst = string(data)
	}

	a, err := prompt.NewAssembler(tmpls)
	if err != nil {
		return nil, fmt.Errorf("creating prompt assembler: %w", err)
	}
	return a, nil
}
