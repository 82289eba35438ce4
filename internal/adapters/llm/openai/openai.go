// Package openai adapts the OpenAI API to the suggestion backend and the
// embedding encoder.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"

	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
)

// Config holds client settings.
type Config struct {
	APIKey      string
	BaseURL     string // optional, for compatible endpoints
	Model       string
	MaxTokens   int
	Temperature float64
}

func newClient(cfg Config) (*openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required for openai")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &client, nil
}

// Chat generates suggestion text with chat completions.
type Chat struct {
	client      *openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewChat creates a chat backend.
func NewChat(cfg Config) (*Chat, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	c := &Chat{
		client:      client,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
	if c.model == "" {
		c.model = DefaultChatModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.temperature <= 0 {
		c.temperature = defaultTemperature
	}
	return c, nil
}

// Generate sends one system and one user message and returns the reply.
func (c *Chat) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("openai returned empty response")
	}
	return out, nil
}

// Model returns the configured model name.
func (c *Chat) Model() string { return c.model }

// transient reports whether err is worth retrying later: transport failures,
// rate limits and server errors.
func transient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}
