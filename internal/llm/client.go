package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/config"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
)

// Provider represents the LLM provider
type Provider string

const (
	ProviderOpenAI           Provider = "openai"
	ProviderOpenAICompatible Provider = "openai-compatible"
	ProviderGemini           Provider = "gemini"
	ProviderNone             Provider = "none"
)

// Completer is a single-shot text completion backend
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client routes completions to the configured provider and applies the
// shared daily quota when one is set.
type Client struct {
	provider Provider
	backend  Completer
	quota    *RateLimiter
	logger   *logrus.Entry
	model    string
}

// NewClient creates the client for cfg.Provider. A provider without its API
// key yields a disabled client rather than an error, so the rest of the
// service keeps working.
func NewClient(ctx context.Context, cfg config.LLMConfig, quota *RateLimiter, logger *logrus.Logger) (*Client, error) {
	log := logger.WithField("component", "llm")
	disabled := &Client{provider: ProviderNone, logger: log}

	switch Provider(cfg.Provider) {
	case "", ProviderNone:
		log.Debug("llm provider disabled")
		return disabled, nil

	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			log.Warn("openai provider selected but no API key configured; run 'internhub configure'")
			return disabled, nil
		}
		model := orDefault(cfg.OpenAIModel, openai.GPT4oMini)
		log.WithField("model", model).Info("openai client initialized")
		return &Client{
			provider: ProviderOpenAI,
			backend:  newOpenAIBackend(cfg.OpenAIKey, "", model),
			quota:    quota,
			logger:   log,
			model:    model,
		}, nil

	case ProviderOpenAICompatible:
		if cfg.CustomLLMURL == "" {
			return nil, apperrors.ConfigError("llm.custom_llm_url is required for the openai-compatible provider")
		}
		backend := newCompatibleBackend(cfg.CustomLLMURL, cfg.CustomLLMKey, cfg.CustomLLMModel)
		log.WithFields(logrus.Fields{"base_url": cfg.CustomLLMURL, "model": backend.model}).Info("openai-compatible client initialized")
		return &Client{
			provider: ProviderOpenAICompatible,
			backend:  backend,
			quota:    quota,
			logger:   log,
			model:    backend.model,
		}, nil

	case ProviderGemini:
		if cfg.GeminiKey == "" {
			log.Warn("gemini provider selected but no API key configured; set GEMINI_API_KEY")
			return disabled, nil
		}
		gemini, err := NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, apperrors.ExternalError(err, "failed to create gemini client")
		}
		return &Client{
			provider: ProviderGemini,
			backend:  gemini,
			quota:    quota,
			logger:   log,
			model:    gemini.model,
		}, nil

	default:
		return nil, apperrors.ConfigErrorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewClientWithBackend wraps an arbitrary backend. Used by tests and
// callers that bring their own completer.
func NewClientWithBackend(provider Provider, backend Completer, logger *logrus.Logger) *Client {
	return &Client{provider: provider, backend: backend, logger: logger.WithField("component", "llm")}
}

// IsEnabled returns true if an LLM backend is configured and ready
func (c *Client) IsEnabled() bool {
	return c.backend != nil
}

// GetProvider returns the active LLM provider
func (c *Client) GetProvider() Provider {
	return c.provider
}

// Complete sends a prompt to the LLM and returns the response
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.IsEnabled() {
		return "", apperrors.ConfigError("llm provider not configured (set llm.provider and its API key)")
	}

	if c.quota != nil {
		if err := c.quota.CheckAndIncrement(ctx, string(c.provider)); err != nil {
			return "", err
		}
	}

	text, err := c.backend.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", apperrors.ExternalError(err, fmt.Sprintf("%s completion failed", c.provider))
	}

	c.logger.WithFields(logrus.Fields{
		"provider":        c.provider,
		"model":           c.model,
		"prompt_length":   len(userPrompt),
		"response_length": len(text),
	}).Debug("llm completion")
	return text, nil
}

// openAIBackend talks to api.openai.com, or baseURL when set
type openAIBackend struct {
	client *openai.Client
	model  string
}

func newOpenAIBackend(apiKey, baseURL, model string) *openAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIBackend{client: openai.NewClientWithConfig(cfg), model: model}
}

func (b *openAIBackend) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.4,
		MaxTokens:   1200,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
