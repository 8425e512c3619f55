// Package api defines the wire types for the orchestrator's HTTP surface.
package api

import (
	"time"

	"github.com/ultrai-project/orchestrator/provider"
)

// =============================================================================
// Envelope
// =============================================================================

// Response is the canonical API envelope every handler writes.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorInfo carries a structured error in the Response envelope.
type ErrorInfo struct {
	Code       string `json:"code" example:"INVALID_REQUEST"`
	Message    string `json:"message" example:"prompt must not be empty"`
	HTTPStatus int    `json:"http_status,omitempty" example:"400"`
	Retryable  bool   `json:"retryable,omitempty"`
	Provider   string `json:"provider,omitempty" example:"openai"`
}

// =============================================================================
// POST /api/orchestrator/analyze
// =============================================================================

// AnalyzeRequest is the orchestration request body.
type AnalyzeRequest struct {
	// Prompt is the user's question, forwarded verbatim to every admitted model.
	// Must be 1..32768 characters.
	Prompt string `json:"prompt" binding:"required" example:"Explain the CAP theorem"`
	// SelectedModels restricts the run to this subset of registered
	// model_ids. Required, size 1..max_selected_models.
	SelectedModels []string `json:"selected_models" example:"gpt-5,claude-opus-4"`
	// IncludeInitialResponses controls whether initial_responses is populated
	// in the success response. Defaults to true when omitted.
	IncludeInitialResponses *bool `json:"include_initial_responses,omitempty"`
	// IncludeMetaResponses controls whether meta_responses is populated in
	// the success response. Defaults to true when omitted.
	IncludeMetaResponses *bool `json:"include_meta_responses,omitempty"`
	// CorrelationID lets the caller pre-assign the id that progress events
	// will be published under. A server-generated UUID is used if omitted.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WantsInitialResponses reports whether the caller asked for
// initial_responses, defaulting to true when the field was omitted.
func (r AnalyzeRequest) WantsInitialResponses() bool {
	return r.IncludeInitialResponses == nil || *r.IncludeInitialResponses
}

// WantsMetaResponses reports whether the caller asked for meta_responses,
// defaulting to true when the field was omitted.
func (r AnalyzeRequest) WantsMetaResponses() bool {
	return r.IncludeMetaResponses == nil || *r.IncludeMetaResponses
}

// TimingsMS reports per-stage and total wall-clock duration in milliseconds.
// Meta is nil when the Meta stage was skipped.
type TimingsMS struct {
	Initial int64  `json:"initial"`
	Meta    *int64 `json:"meta"`
	Ultra   int64  `json:"ultra"`
	Total   int64  `json:"total"`
}

// AnalyzeResponse is the full pipeline result returned once all three
// stages have settled (or the pipeline has failed).
type AnalyzeResponse struct {
	CorrelationID    string            `json:"correlation_id"`
	Status           string            `json:"status" example:"success"`
	InitialResponses map[string]string `json:"initial_responses,omitempty"`
	MetaResponses    map[string]string `json:"meta_responses,omitempty"`
	UltraResponse    string            `json:"ultra_response,omitempty"`
	SynthesizedBy    string            `json:"synthesized_by,omitempty"`
	SucceededModels  []string          `json:"succeeded_models"`
	FailedModels     map[string]string `json:"failed_models,omitempty"`
	TimingsMS        *TimingsMS        `json:"timings_ms,omitempty"`
	Error            *ErrorInfo        `json:"error,omitempty"`
}

// ModelOutputDTO is the wire shape of a single model's contribution to a
// stage. It mirrors provider.ModelOutput with a JSON-friendly Status.
type ModelOutputDTO struct {
	ModelID     string `json:"model_id"`
	Text        string `json:"text,omitempty"`
	Status      string `json:"status" example:"success"`
	LatencyMS   int64  `json:"latency_ms"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ModelOutputFromDomain converts a provider.ModelOutput into its DTO.
func ModelOutputFromDomain(modelID string, out provider.ModelOutput) ModelOutputDTO {
	return ModelOutputDTO{
		ModelID:     modelID,
		Text:        out.Text,
		Status:      string(out.Status),
		LatencyMS:   out.LatencyMS,
		ErrorDetail: out.ErrorDetail,
	}
}

// =============================================================================
// GET /api/orchestrator/stream
// =============================================================================

// StreamEvent is the SSE/WebSocket wire frame for a single progress.Event.
type StreamEvent struct {
	CorrelationID string                 `json:"correlation_id"`
	Sequence      int                    `json:"sequence"`
	Type          string                 `json:"type" example:"model_responded"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	EmittedAt     time.Time              `json:"emitted_at"`
}

// =============================================================================
// GET /api/orchestrator/models
// =============================================================================

// ModelSummary describes one registered model for discovery.
type ModelSummary struct {
	ModelID            string `json:"model_id" example:"gpt-5"`
	Provider           string `json:"provider" example:"openai"`
	RequiresCredential string `json:"requires_credential,omitempty"`
}

// ModelListResponse lists every model known to the Registry.
type ModelListResponse struct {
	Models []ModelSummary `json:"models"`
}

// =============================================================================
// GET /api/orchestrator/readiness
// =============================================================================

// ReadinessEntry is one model_id's availability verdict.
type ReadinessEntry struct {
	ModelID      string `json:"model_id"`
	Availability string `json:"availability" example:"available"`
	Reason       string `json:"reason,omitempty"`
}

// ReadinessResponse reports availability for every registered model_id.
type ReadinessResponse struct {
	Models []ReadinessEntry `json:"models"`
}

// =============================================================================
// Error Types
// =============================================================================

// ErrorResponse is an error reported outside the Response envelope (used by
// middleware that rejects a request before a handler runs).
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail mirrors ErrorInfo for standalone error bodies.
type ErrorDetail struct {
	Code       string `json:"code" example:"INVALID_REQUEST"`
	Message    string `json:"message" example:"invalid request parameters"`
	HTTPStatus int    `json:"http_status,omitempty" example:"400"`
	Retryable  bool   `json:"retryable,omitempty" example:"false"`
	Provider   string `json:"provider,omitempty" example:"openai"`
}
