package provider

import (
	"context"
	"net/http"
	"time"
)

const probeTimeout = 5 * time.Second

// probeViaModelsList performs one GET against a lightweight vendor endpoint
// (typically a model-listing route) to classify reachability. It never
// retries: a 429 or a slow-but-successful response is degraded, a transport
// failure or any other non-2xx response is unavailable, and a fast 2xx is
// healthy.
func probeViaModelsList(ctx context.Context, providerName string, cfg Config, path string) ProviderHealth {
	now := time.Now()
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+path, nil)
	if err != nil {
		return ProviderHealth{Provider: providerName, Status: HealthUnavailable, LastCheckedAt: now, Detail: err.Error()}
	}
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	started := time.Now()
	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Do(req)
	elapsed := time.Since(started)
	if err != nil {
		return ProviderHealth{Provider: providerName, Status: HealthUnavailable, LastCheckedAt: now, Detail: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ProviderHealth{Provider: providerName, Status: HealthDegraded, LastCheckedAt: now, Detail: "rate_limited"}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if elapsed > probeTimeout/2 {
			return ProviderHealth{Provider: providerName, Status: HealthDegraded, LastCheckedAt: now, Detail: "slow_response"}
		}
		return ProviderHealth{Provider: providerName, Status: HealthHealthy, LastCheckedAt: now}
	default:
		return ProviderHealth{Provider: providerName, Status: HealthUnavailable, LastCheckedAt: now, Detail: readErrorMessage(resp.Body)}
	}
}
