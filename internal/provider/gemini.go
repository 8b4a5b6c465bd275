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

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewGeminiClient(cfg config.ProviderConfig, client *http.Client) *GeminiClient {
	return &GeminiClient{cfg: cfg, client: client}
}

func (g *GeminiClient) Name() string { return g.cfg.Name }

func (g *GeminiClient) Available() bool { return g.cfg.Configured() }

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Available() {
		return "", &Error{Provider: g.Name(), Kind: KindAuthMissing}
	}

	body := geminiRequestBody{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Provider: g.Name(), Kind: KindTransport, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := g.cfg.BaseURL + "/v1beta/models/" + g.cfg.Model + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", &Error{Provider: g.Name(), Kind: KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &Error{Provider: g.Name(), Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: g.Name(), Kind: KindTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Provider: g.Name(), Kind: KindTransport, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))}
	}

	var gr geminiResponseBody
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", &Error{Provider: g.Name(), Kind: KindMalformedResponse, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Provider: g.Name(), Kind: KindTransport, Err: fmt.Errorf("response has no candidates")}
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", &Error{Provider: g.Name(), Kind: KindTransport, Err: fmt.Errorf("candidate has empty text")}
	}
	return text, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

type geminiRequestBody struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponseBody struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
