package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lewisedginton/safe_local_human/internal/message"
)

// OpenAI replies with a chat completion over the episode history.
type OpenAI struct {
	client       openai.Client
	model        string
	systemPrompt string
	maxTokens    int64
	history      history
}

// NewOpenAI creates an OpenAI partner. An empty system prompt uses DefaultSystemPrompt.
func NewOpenAI(apiKey, model, systemPrompt string, maxTokens int64, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAI{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
	}, nil
}

func (o *OpenAI) ID() string { return o.model }

func (o *OpenAI) Observe(_ context.Context, msg *message.Message) error {
	return o.history.observe(msg)
}

func (o *OpenAI) Act(ctx context.Context) (*message.Message, error) {
	if err := o.history.checkPending(); err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(o.history.entries)+1)
	messages = append(messages, openai.SystemMessage(o.history.systemPrompt(o.systemPrompt)))
	for _, e := range o.history.entries {
		if e.role == roleHuman {
			messages = append(messages, openai.UserMessage(e.text))
		} else {
			messages = append(messages, openai.AssistantMessage(e.text))
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     o.model,
		MaxTokens: openai.Int(o.maxTokens),
		Messages:  messages,
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return o.history.reply(o.ID(), strings.TrimSpace(completion.Choices[0].Message.Content)), nil
}

func (o *OpenAI) Reset() { o.history.reset() }
