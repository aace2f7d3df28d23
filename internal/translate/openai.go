package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI translates with a chat completion model.
type OpenAI struct {
	client openai.Client
	model  string
	langs  Languages
}

// NewOpenAI creates an OpenAI-backed translator.
func NewOpenAI(apiKey, model string, langs Languages, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAI{client: client, model: model, langs: langs}, nil
}

// Translate implements Translator.
func (o *OpenAI) Translate(ctx context.Context, text string) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.langs.systemPrompt()),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
