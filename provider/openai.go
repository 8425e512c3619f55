package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIAdapter talks to the OpenAI-compatible chat completions API.
type OpenAIAdapter struct {
	base
}

// NewOpenAIAdapter constructs an adapter for the openai provider.
func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &OpenAIAdapter{base: newBase("openai", cfg)}
}

type openAIChatRequest struct {
	Model    string              `json:"model"`
	Messages []openAIChatMessage `json:"messages"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func (a *OpenAIAdapter) Generate(ctx context.Context, vendorModelName, prompt string, deadline time.Time) ModelOutput {
	return a.generate(ctx, vendorModelName, prompt, deadline, func(ctx context.Context) (string, int, error) {
		body, err := json.Marshal(openAIChatRequest{
			Model:    vendorModelName,
			Messages: []openAIChatMessage{{Role: "user", Content: prompt}},
		})
		if err != nil {
			return "", 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

		resp, err := a.client.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", resp.StatusCode, fmt.Errorf("%s", readErrorMessage(resp.Body))
		}

		var out openAIChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", resp.StatusCode, err
		}
		if len(out.Choices) == 0 {
			return "", resp.StatusCode, fmt.Errorf("empty choices")
		}
		return out.Choices[0].Message.Content, resp.StatusCode, nil
	})
}

func (a *OpenAIAdapter) Probe(ctx context.Context) ProviderHealth {
	return probeViaModelsList(ctx, a.name, a.cfg, "/models")
}
