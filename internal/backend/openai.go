package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kmcrae/herald/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIBackend struct {
	client openai.Client
	model  string
}

func newOpenAI(cfg config.AskConfig) (Backend, error) {
	if cfg.OpenAIKey == "" {
		return nil, errors.New("openai: OPENAI_API_KEY is empty")
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIBackend{
		client: openai.NewClient(option.WithAPIKey(cfg.OpenAIKey)),
		model:  model,
	}, nil
}

func (b *openAIBackend) Name() string { return "openai" }

func (b *openAIBackend) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai response did not include text output")
	}
	return resp.Choices[0].Message.Content, nil
}
