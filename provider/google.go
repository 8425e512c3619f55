package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GoogleAdapter talks to the Gemini generateContent API.
type GoogleAdapter struct {
	base
}

// NewGoogleAdapter constructs an adapter for the google provider.
func NewGoogleAdapter(cfg Config) *GoogleAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GoogleAdapter{base: newBase("google", cfg)}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (a *GoogleAdapter) Generate(ctx context.Context, vendorModelName, prompt string, deadline time.Time) ModelOutput {
	return a.generate(ctx, vendorModelName, prompt, deadline, func(ctx context.Context) (string, int, error) {
		body, err := json.Marshal(geminiRequest{
			Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		})
		if err != nil {
			return "", 0, err
		}

		url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.cfg.BaseURL, vendorModelName, a.cfg.APIKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", resp.StatusCode, fmt.Errorf("%s", readErrorMessage(resp.Body))
		}

		var out geminiResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", resp.StatusCode, err
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return "", resp.StatusCode, fmt.Errorf("empty candidates")
		}
		return out.Candidates[0].Content.Parts[0].Text, resp.StatusCode, nil
	})
}

func (a *GoogleAdapter) Probe(ctx context.Context) ProviderHealth {
	return probeViaModelsList(ctx, a.name, a.cfg, "/models")
}
