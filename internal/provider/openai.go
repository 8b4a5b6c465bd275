package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/studypal/assist-gateway/internal/config"
)

// OpenAIClient calls any OpenAI-compatible chat completions API
// (OpenRouter in the default deployment).
type OpenAIClient struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewOpenAIClient(cfg config.ProviderConfig, client *http.Client) *OpenAIClient {
	return &OpenAIClient{cfg: cfg, client: client}
}

func (o *OpenAIClient) Name() string { return o.cfg.Name }

func (o *OpenAIClient) Available() bool { return o.cfg.Configured() }

func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !o.Available() {
		return "", &Error{Provider: o.Name(), Kind: KindAuthMissing}
	}

	body := openAIRequestBody{
		Model: o.cfg.Model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Provider: o.Name(), Kind: KindTransport, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := o.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", &Error{Provider: o.Name(), Kind: KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &Error{Provider: o.Name(), Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: o.Name(), Kind: KindTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Provider: o.Name(), Kind: KindTransport, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))}
	}

	var or openAIResponseBody
	if err := json.Unmarshal(respBody, &or); err != nil {
		return "", &Error{Provider: o.Name(), Kind: KindMalformedResponse, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if len(or.Choices) == 0 {
		return "", &Error{Provider: o.Name(), Kind: KindTransport, Err: fmt.Errorf("response has no choices")}
	}

	text := or.Choices[0].Message.Content
	if text == "" {
		return "", &Error{Provider: o.Name(), Kind: KindTransport, Err: fmt.Errorf("choice has empty content")}
	}
	return text, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequestBody struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIResponseBody struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}
