package safety

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModerationModel is used when no model is configured.
const DefaultModerationModel = string(openai.ModerationModelOmniModerationLatest)

// Classifier asks the OpenAI moderation endpoint whether text is offensive.
type Classifier struct {
	client openai.Client
	model  string
}

// NewClassifier creates a moderation-backed classifier. Extra request options
// (base URL, retries, timeouts) are passed to the client.
func NewClassifier(apiKey, model string, opts ...option.RequestOption) (*Classifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required for the classifier")
	}
	if model == "" {
		model = DefaultModerationModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Classifier{client: client, model: model}, nil
}

// Model returns the moderation model name.
func (c *Classifier) Model() string {
	return c.model
}

// IsOffensive implements Checker. Any flagged result marks the text offensive.
func (c *Classifier) IsOffensive(ctx context.Context, text string) (bool, error) {
	resp, err := c.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.ModerationModel(c.model),
	})
	if err != nil {
		return false, fmt.Errorf("moderation request: %w", err)
	}
	for _, result := range resp.Results {
		if result.Flagged {
			return true, nil
		}
	}
	return false, nil
}
