package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AnthropicAdapter talks to the Anthropic Messages API.
type AnthropicAdapter struct {
	base
}

// NewAnthropicAdapter constructs an adapter for the anthropic provider.
func NewAnthropicAdapter(cfg Config) *AnthropicAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	return &AnthropicAdapter{base: newBase("anthropic", cfg)}
}

type anthropicMessageRequest struct {
	Model     string                `json:"model"`
	MaxTokens int                   `json:"max_tokens"`
	Messages  []anthropicMessageIn  `json:"messages"`
}

type anthropicMessageIn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicMessageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (a *AnthropicAdapter) Generate(ctx context.Context, vendorModelName, prompt string, deadline time.Time) ModelOutput {
	return a.generate(ctx, vendorModelName, prompt, deadline, func(ctx context.Context) (string, int, error) {
		body, err := json.Marshal(anthropicMessageRequest{
			Model:     vendorModelName,
			MaxTokens: 4096,
			Messages:  []anthropicMessageIn{{Role: "user", Content: prompt}},
		})
		if err != nil {
			return "", 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", a.cfg.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := a.client.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", resp.StatusCode, fmt.Errorf("%s", readErrorMessage(resp.Body))
		}

		var out anthropicMessageResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", resp.StatusCode, err
		}
		if len(out.Content) == 0 {
			return "", resp.StatusCode, fmt.Errorf("empty content")
		}
		return out.Content[0].Text, resp.StatusCode, nil
	})
}

func (a *AnthropicAdapter) Probe(ctx context.Context) ProviderHealth {
	return probeViaModelsList(ctx, a.name, a.cfg, "/models")
}
