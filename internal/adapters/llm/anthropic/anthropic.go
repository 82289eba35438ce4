// Package anthropic adapts the Anthropic Messages API to the suggestion backend.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel = "claude-3-5-haiku-latest"

	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
)

// Config holds client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Messages generates suggestion text with the Messages API.
type Messages struct {
	client      *anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// New creates a Messages backend.
func New(cfg Config) (*Messages, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required for anthropic")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	m := &Messages{
		client:      &client,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
	if m.model == "" {
		m.model = DefaultModel
	}
	if m.maxTokens <= 0 {
		m.maxTokens = defaultMaxTokens
	}
	if m.temperature <= 0 {
		m.temperature = defaultTemperature
	}
	return m, nil
}

// Generate sends one user turn and concatenates the text blocks of the reply.
func (m *Messages) Generate(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(m.temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", errors.New("anthropic returned empty response")
	}
	return text, nil
}

// Model returns the configured model name.
func (m *Messages) Model() string { return m.model }
