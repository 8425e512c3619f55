package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultrai-project/orchestrator/api"
	"github.com/ultrai-project/orchestrator/pipeline"
	"github.com/ultrai-project/orchestrator/progress"
	"github.com/ultrai-project/orchestrator/provider"
	"github.com/ultrai-project/orchestrator/registry"
	"go.uber.org/zap"
)

// stubAdapter always succeeds with a fixed echo response.
type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Generate(ctx context.Context, vendorModelName, prompt string, deadline time.Time) provider.ModelOutput {
	return provider.ModelOutput{Text: "echo: " + prompt, Status: provider.StatusSuccess, LatencyMS: 1}
}

func (s *stubAdapter) Probe(ctx context.Context) provider.ProviderHealth {
	return provider.ProviderHealth{Provider: s.name, Status: provider.HealthHealthy, LastCheckedAt: time.Unix(0, 0)}
}

func healthyAllSnapshot(providers ...string) pipeline.HealthSnapshot {
	snap := make(map[string]provider.ProviderHealth, len(providers))
	for _, p := range providers {
		snap[p] = provider.ProviderHealth{Provider: p, Status: provider.HealthHealthy, LastCheckedAt: time.Unix(0, 0)}
	}
	return func() map[string]provider.ProviderHealth { return snap }
}

func newTestAnalyzeHandler() *AnalyzeHandler {
	reg := registry.New([]registry.ModelDescriptor{
		{ID: "gpt-4o", Provider: "openai", VendorModelName: "gpt-4o"},
		{ID: "claude-3-5-sonnet", Provider: "anthropic", VendorModelName: "claude-3-5-sonnet-latest"},
	})
	adapters := map[string]provider.Adapter{
		"openai":    &stubAdapter{name: "openai"},
		"anthropic": &stubAdapter{name: "anthropic"},
	}
	bus := progress.NewBus()
	health := healthyAllSnapshot("openai", "anthropic")
	engine := pipeline.NewEngine(adapters, reg, bus, health, pipeline.Deadlines{})
	return NewAnalyzeHandler(engine, reg, health, zap.NewNop(), 10)
}

func TestAnalyzeHandler_Handle_Success(t *testing.T) {
	h := newTestAnalyzeHandler()

	body, err := json.Marshal(api.AnalyzeRequest{
		Prompt:         "what is the capital of France?",
		SelectedModels: []string{"gpt-4o", "claude-3-5-sonnet"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orchestrator/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var analyzeResp api.AnalyzeResponse
	require.NoError(t, json.Unmarshal(data, &analyzeResp))
	assert.Equal(t, "success", analyzeResp.Status)
	assert.NotEmpty(t, analyzeResp.UltraResponse)
	assert.NotEmpty(t, analyzeResp.SynthesizedBy)
	assert.Len(t, analyzeResp.SucceededModels, 2)
	assert.NotEmpty(t, analyzeResp.InitialResponses)
	require.NotNil(t, analyzeResp.TimingsMS)
	assert.GreaterOrEqual(t, analyzeResp.TimingsMS.Total, int64(0))
}

func TestAnalyzeHandler_Handle_EmptyPrompt(t *testing.T) {
	h := newTestAnalyzeHandler()

	body, err := json.Marshal(api.AnalyzeRequest{Prompt: "", SelectedModels: []string{"gpt-4o"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orchestrator/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeHandler_Handle_NoSelectedModels(t *testing.T) {
	h := newTestAnalyzeHandler()

	body, err := json.Marshal(api.AnalyzeRequest{Prompt: "hello"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orchestrator/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeHandler_Handle_TooManySelectedModels(t *testing.T) {
	h := newTestAnalyzeHandler()

	models := make([]string, 11)
	for i := range models {
		models[i] = "gpt-4o"
	}
	body, err := json.Marshal(api.AnalyzeRequest{Prompt: "hello", SelectedModels: models})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orchestrator/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeHandler_Handle_IncludeInitialResponsesFalse(t *testing.T) {
	h := newTestAnalyzeHandler()

	no := false
	body, err := json.Marshal(api.AnalyzeRequest{
		Prompt:                  "hello",
		SelectedModels:          []string{"gpt-4o", "claude-3-5-sonnet"},
		IncludeInitialResponses: &no,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orchestrator/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var analyzeResp api.AnalyzeResponse
	require.NoError(t, json.Unmarshal(data, &analyzeResp))
	assert.Nil(t, analyzeResp.InitialResponses)
}

func TestAnalyzeHandler_Handle_MethodNotAllowed(t *testing.T) {
	h := newTestAnalyzeHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/orchestrator/analyze", nil)
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAnalyzeHandler_Handle_NoAvailableModels(t *testing.T) {
	reg := registry.New([]registry.ModelDescriptor{
		{ID: "gpt-4o", Provider: "openai", VendorModelName: "gpt-4o"},
	})
	adapters := map[string]provider.Adapter{"openai": &stubAdapter{name: "openai"}}
	bus := progress.NewBus()
	unhealthy := func() map[string]provider.ProviderHealth {
		return map[string]provider.ProviderHealth{
			"openai": {Provider: "openai", Status: provider.HealthUnavailable, Detail: "no credential"},
		}
	}
	engine := pipeline.NewEngine(adapters, reg, bus, unhealthy, pipeline.Deadlines{})
	h := NewAnalyzeHandler(engine, reg, unhealthy, zap.NewNop(), 10)

	body, err := json.Marshal(api.AnalyzeRequest{Prompt: "hello", SelectedModels: []string{"gpt-4o"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orchestrator/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalyzeHandler_Handle_RequestedModelSubset(t *testing.T) {
	h := newTestAnalyzeHandler()

	body, err := json.Marshal(api.AnalyzeRequest{Prompt: "hello", SelectedModels: []string{"gpt-4o"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orchestrator/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var analyzeResp api.AnalyzeResponse
	require.NoError(t, json.Unmarshal(data, &analyzeResp))
	assert.Equal(t, []string{"gpt-4o"}, analyzeResp.SucceededModels)
}
