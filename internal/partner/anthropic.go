package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lewisedginton/safe_local_human/internal/message"
)

// Anthropic replies with a Claude model over the episode history.
type Anthropic struct {
	client       anthropic.Client
	model        string
	systemPrompt string
	maxTokens    int64
	history      history
}

// NewAnthropic creates an Anthropic partner. An empty model uses the latest Sonnet.
func NewAnthropic(apiKey, model, systemPrompt string, maxTokens int64, opts ...option.RequestOption) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Anthropic{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
	}, nil
}

func (a *Anthropic) ID() string { return a.model }

func (a *Anthropic) Observe(_ context.Context, msg *message.Message) error {
	return a.history.observe(msg)
}

func (a *Anthropic) Act(ctx context.Context) (*message.Message, error) {
	if err := a.history.checkPending(); err != nil {
		return nil, err
	}

	messages := make([]anthropic.MessageParam, 0, len(a.history.entries))
	for _, e := range a.history.entries {
		block := anthropic.NewTextBlock(e.text)
		if e.role == roleHuman {
			messages = append(messages, anthropic.NewUserMessage(block))
		} else {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		}
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: a.history.systemPrompt(a.systemPrompt)}},
		Messages:  messages,
	})
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return a.history.reply(a.ID(), strings.TrimSpace(sb.String())), nil
}

func (a *Anthropic) Reset() { a.history.reset() }
