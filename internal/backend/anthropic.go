package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kmcrae/herald/internal/config"
)

const (
	defaultAnthropicModel     = "claude-3-5-sonnet-latest"
	defaultAnthropicMaxTokens = 1024
)

type anthropicBackend struct {
	client anthropic.Client
	model  string
}

func newAnthropic(cfg config.AskConfig) (Backend, error) {
	if cfg.AnthropicKey == "" {
		return nil, errors.New("anthropic: ANTHROPIC_API_KEY is empty")
	}
	model := cfg.AnthropicModel
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicBackend{
		client: anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey)),
		model:  model,
	}, nil
}

func (b *anthropicBackend) Name() string { return "anthropic" }

func (b *anthropicBackend) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: defaultAnthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic response did not include text output")
	}
	return sb.String(), nil
}
