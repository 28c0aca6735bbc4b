package model

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider adapts a chat-completion backend to the Provider port.
// Completions arrive as a single text, so only the direct-text shape of
// Response is populated.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (o *OpenAIProvider) Name() string { return "openai:" + o.model }

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, opts Options) (*Response, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxOutputTokens,
		TopP:        opts.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return &Response{}, nil
	}
	return &Response{Text: resp.Choices[0].Message.Content}, nil
}
