// Package openai provides an LLM service adapter for OpenAI-compatible
// chat completion APIs, including OpenRouter and Ollama.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = domain.DefaultLLMBaseURL
	DefaultLLMModel    = domain.DefaultLLMModel
	DefaultLLMTimeout  = 120 * time.Second
	DefaultMaxTokens   = domain.DefaultLLMMaxTokens
	DefaultTemperature = domain.DefaultLLMTemperature
)

// LLMConfig holds configuration for the LLM service.
type LLMConfig struct {
	// APIKey is the API key. Checked on first use.
	APIKey string

	// BaseURL is the API base URL (default: https://openrouter.ai/api/v1).
	BaseURL string

	// Model is the chat model to use (default: openai/gpt-4o-mini).
	Model string

	// MaxTokens caps completions (default: 500).
	MaxTokens int

	// Temperature controls randomness. Zero is deterministic; a negative
	// value selects the default (0.3).
	Temperature float64

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides chat completions through openai-go.
type LLMService struct {
	client      openaisdk.Client
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// NewLLMService creates a new LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	client := openaisdk.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	)

	return &LLMService{
		client:      client,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Complete sends a system and user message and returns the reply with usage.
func (s *LLMService) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: API key is not configured", domain.ErrLLMUnavailable)
	}

	maxTokens := s.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	temperature := s.temperature
	if req.Temperature >= 0 {
		temperature = req.Temperature
	}

	var messages []openaisdk.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openaisdk.SystemMessage(req.System))
	}
	messages = append(messages, openaisdk.UserMessage(req.Prompt))

	resp, err := s.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(s.model),
		Messages:    messages,
		MaxTokens:   param.NewOpt(int64(maxTokens)),
		Temperature: param.NewOpt(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices in response")
	}

	model := resp.Model
	if model == "" {
		model = s.model
	}

	return &domain.Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}

// ModelName returns the chat model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
