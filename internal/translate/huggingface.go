package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHuggingFaceURL is the hosted inference endpoint.
const DefaultHuggingFaceURL = "https://api-inference.huggingface.co"

// HuggingFace calls a translation model on the Hugging Face inference API.
type HuggingFace struct {
	baseURL string
	model   string
	token   string
	client  *http.Client
}

// NewHuggingFace creates a client for the given model. token may be empty for public models.
func NewHuggingFace(baseURL, model, token string, timeout time.Duration) (*HuggingFace, error) {
	if model == "" {
		return nil, fmt.Errorf("model identifier is required")
	}
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &HuggingFace{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type hfRequest struct {
	Inputs  string         `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}

type hfTranslation struct {
	TranslationText string `json:"translation_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// Translate implements Translator.
func (h *HuggingFace) Translate(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(hfRequest{Inputs: text, Options: map[string]any{"wait_for_model": true}})
	if err != nil {
		return "", err
	}

	endpoint := h.baseURL + "/models/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("huggingface %s: %s", resp.Status, apiErr.Error)
		}
		return "", fmt.Errorf("huggingface %s", resp.Status)
	}

	var out []hfTranslation
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("huggingface returned no translation")
	}
	return out[0].TranslationText, nil
}
