package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ultrai-project/orchestrator/api"
	"github.com/ultrai-project/orchestrator/core"
	"github.com/ultrai-project/orchestrator/pipeline"
	"github.com/ultrai-project/orchestrator/provider"
	"github.com/ultrai-project/orchestrator/readiness"
	"github.com/ultrai-project/orchestrator/registry"
	"go.uber.org/zap"
)

// maxPromptLength is the spec's upper bound on AnalyzeRequest.Prompt.
const maxPromptLength = 32768

// AnalyzeHandler runs the three-stage pipeline for POST /api/orchestrator/analyze.
type AnalyzeHandler struct {
	engine            *pipeline.Engine
	reg               *registry.Registry
	health            pipeline.HealthSnapshot
	logger            *zap.Logger
	maxSelectedModels int
}

// NewAnalyzeHandler builds an AnalyzeHandler bound to engine and reg.
// maxSelectedModels bounds the size of AnalyzeRequest.SelectedModels, sourced
// from config.OrchestratorConfig.MaxSelectedModels.
func NewAnalyzeHandler(engine *pipeline.Engine, reg *registry.Registry, health pipeline.HealthSnapshot, logger *zap.Logger, maxSelectedModels int) *AnalyzeHandler {
	return &AnalyzeHandler{engine: engine, reg: reg, health: health, logger: logger, maxSelectedModels: maxSelectedModels}
}

// Handle validates the request, admits those requested models that are not
// unavailable, runs the pipeline to completion, and writes the result.
func (h *AnalyzeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, core.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.AnalyzeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if n := utf8.RuneCountInString(req.Prompt); n == 0 || n > maxPromptLength {
		WriteErrorMessage(w, http.StatusBadRequest, core.ErrInvalidRequest,
			fmt.Sprintf("prompt must be 1..%d characters", maxPromptLength), h.logger)
		return
	}

	if len(req.SelectedModels) == 0 || len(req.SelectedModels) > h.maxSelectedModels {
		WriteErrorMessage(w, http.StatusBadRequest, core.ErrInvalidRequest,
			fmt.Sprintf("selected_models must have 1..%d entries", h.maxSelectedModels), h.logger)
		return
	}

	admitted := h.admittedModels(req.SelectedModels)
	if len(admitted) == 0 {
		WriteErrorMessage(w, http.StatusServiceUnavailable, core.ErrNoAvailableModels, "no admitted model is currently available", h.logger)
		return
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	result := h.engine.Run(r.Context(), correlationID, req.Prompt, admitted)
	WriteSuccess(w, h.toResponse(result, req))
}

// admittedModels resolves the caller's selected model_ids against current
// readiness, returning only those that are not unavailable.
func (h *AnalyzeHandler) admittedModels(requested []string) []string {
	candidates := requested

	var admitted []string
	healthSnapshot := h.health()
	for _, modelID := range candidates {
		report := readiness.Evaluate(h.reg, healthSnapshot, modelID)
		if report.Availability == readiness.Unavailable {
			continue
		}
		if _, ok := h.reg.Resolve(modelID); !ok {
			continue
		}
		admitted = append(admitted, modelID)
	}

	sort.Strings(admitted)
	return admitted
}

func (h *AnalyzeHandler) toResponse(result pipeline.PipelineResult, req api.AnalyzeRequest) api.AnalyzeResponse {
	resp := api.AnalyzeResponse{
		CorrelationID:   result.CorrelationID,
		Status:          result.Status,
		SucceededModels: result.SucceededList(),
		FailedModels:    result.FailedModels,
	}

	if req.WantsInitialResponses() {
		resp.InitialResponses = map[string]string{}
		for modelID, out := range result.Initial.PerModelOutputs {
			resp.InitialResponses[modelID] = out.Text
		}
	}

	if result.Meta != nil && req.WantsMetaResponses() {
		resp.MetaResponses = map[string]string{}
		for modelID, out := range result.Meta.PerModelOutputs {
			resp.MetaResponses[modelID] = out.Text
		}
	}

	for modelID, out := range result.Ultra.PerModelOutputs {
		if out.Status == provider.StatusSuccess {
			resp.UltraResponse = out.Text
			resp.SynthesizedBy = modelID
			break
		}
	}

	if result.Status == "success" {
		resp.TimingsMS = timingsFor(result)
	}

	if result.ErrorCode != "" {
		resp.Error = &api.ErrorInfo{
			Code:       result.ErrorCode,
			Message:    "pipeline did not complete successfully",
			HTTPStatus: core.StatusForCode(core.ErrorCode(result.ErrorCode)),
		}
	}

	return resp
}

// timingsFor projects each stage's wall-clock span into milliseconds. Meta is
// nil when the Meta stage was skipped. Total spans from the start of Initial
// to the end of Ultra.
func timingsFor(result pipeline.PipelineResult) *api.TimingsMS {
	t := &api.TimingsMS{
		Initial: result.Initial.EndedAt.Sub(result.Initial.StartedAt).Milliseconds(),
		Ultra:   result.Ultra.EndedAt.Sub(result.Ultra.StartedAt).Milliseconds(),
	}

	if result.Meta != nil {
		meta := result.Meta.EndedAt.Sub(result.Meta.StartedAt).Milliseconds()
		t.Meta = &meta
	}

	end := result.Ultra.EndedAt
	if end.Before(result.Initial.StartedAt) {
		end = result.Initial.StartedAt
	}
	t.Total = end.Sub(result.Initial.StartedAt).Milliseconds()

	return t
}
