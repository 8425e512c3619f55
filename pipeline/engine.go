package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ultrai-project/orchestrator/core"
	"github.com/ultrai-project/orchestrator/progress"
	"github.com/ultrai-project/orchestrator/provider"
	"github.com/ultrai-project/orchestrator/registry"
)

// Deadlines configures the pipeline's per-stage and overall time budgets.
// A zero field falls back to DefaultDeadlines' value (see NewEngine); callers
// normally build one from config.OrchestratorConfig.
type Deadlines struct {
	Initial time.Duration
	Meta    time.Duration
	Ultra   time.Duration
	Overall time.Duration
}

// DefaultDeadlines matches the spec's documented defaults: 60s for Initial
// and Meta, 45s for Ultra, 180s for the whole pipeline.
func DefaultDeadlines() Deadlines {
	return Deadlines{
		Initial: 60 * time.Second,
		Meta:    60 * time.Second,
		Ultra:   45 * time.Second,
		Overall: 180 * time.Second,
	}
}

const metaCritiquePromptPreamble = "You produced one of several candidate responses to the user's question. " +
	"Below is the user's original prompt, then the full set of candidate responses (including your own, unlabeled). " +
	"Produce an improved response that incorporates the strongest reasoning across candidates and corrects any errors. " +
	"Respond with only the improved answer."

const synthesisPromptPreamble = "Below is a user's question followed by multiple candidate answers produced by independent models. " +
	"Synthesize a single best answer that reflects the consensus where it exists, notes substantive disagreements where they don't, " +
	"and is self-contained. Respond with only the synthesized answer."

// HealthSnapshot reports the current reachability of every provider, as
// produced by health.Prober.Snapshot.
type HealthSnapshot func() map[string]provider.ProviderHealth

// Engine executes the three-stage analysis state machine for one request at
// a time; it holds no per-run state, so one Engine serves every analyze call.
type Engine struct {
	adapters  map[string]provider.Adapter
	reg       *registry.Registry
	bus       progress.Publisher
	health    HealthSnapshot
	deadlines Deadlines
}

// NewEngine builds an Engine. adapters is keyed by provider name; reg
// resolves model IDs to descriptors so the Engine can find the adapter
// backing each selected model. health supplies the current provider
// reachability used to rank synthesizer candidates in Stage 3; pass nil to
// fall back to the deterministic sorted-model_id ordering unconditionally.
// bus only needs to publish; the in-process progress.Bus and the Redis-
// backed progress.RedisBus both satisfy progress.Publisher. deadlines
// supplies the per-stage and overall time budgets, normally sourced from
// config.OrchestratorConfig; the zero value of any field falls back to
// DefaultDeadlines' value for that field.
func NewEngine(adapters map[string]provider.Adapter, reg *registry.Registry, bus progress.Publisher, health HealthSnapshot, deadlines Deadlines) *Engine {
	d := DefaultDeadlines()
	if deadlines.Initial > 0 {
		d.Initial = deadlines.Initial
	}
	if deadlines.Meta > 0 {
		d.Meta = deadlines.Meta
	}
	if deadlines.Ultra > 0 {
		d.Ultra = deadlines.Ultra
	}
	if deadlines.Overall > 0 {
		d.Overall = deadlines.Overall
	}
	return &Engine{adapters: adapters, reg: reg, bus: bus, health: health, deadlines: d}
}

// Run executes the pipeline for the given admitted models against prompt,
// emitting progress events to the bus under correlationID throughout.
func (e *Engine) Run(ctx context.Context, correlationID, prompt string, admittedModels []string) PipelineResult {
	ctx, cancel := context.WithTimeout(ctx, e.deadlines.Overall)
	defer cancel()

	result := PipelineResult{
		CorrelationID:   correlationID,
		SucceededModels: make(map[string]struct{}),
		FailedModels:    make(map[string]string),
	}

	initial := e.runStage(ctx, correlationID, StageInitial, admittedModels, e.deadlines.Initial, func(modelID string) string {
		return prompt
	})
	result.Initial = initial
	e.recordOutcomes(&result, initial)

	initialSuccesses := successfulModelIDs(initial)
	if len(initialSuccesses) == 0 {
		if ctx.Err() == context.DeadlineExceeded {
			return e.failDeadlineExceeded(result, correlationID)
		}
		e.bus.Publish(correlationID, progress.EventPipelineFailed, map[string]interface{}{"reason": "initial_all_failed"})
		result.Status = "error"
		result.ErrorCode = string(core.ErrInitialAllFailed)
		return result
	}

	synthesisInput := initial

	if len(initialSuccesses) >= 2 {
		metaPrompt := buildCritiquePrompt(prompt, initial)
		meta := e.runStage(ctx, correlationID, StageMeta, initialSuccesses, e.deadlines.Meta, func(modelID string) string {
			return metaPrompt
		})
		result.Meta = &meta

		if len(successfulModelIDs(meta)) > 0 {
			synthesisInput = meta
		}
	}

	ultra, ok := e.runUltra(ctx, correlationID, prompt, synthesisInput)
	result.Ultra = ultra
	if !ok {
		if ctx.Err() == context.DeadlineExceeded {
			return e.failDeadlineExceeded(result, correlationID)
		}
		e.bus.Publish(correlationID, progress.EventPipelineFailed, map[string]interface{}{"reason": "synthesis_failed"})
		result.Status = "error"
		result.ErrorCode = string(core.ErrSynthesisFailed)
		return result
	}

	result.Status = "success"
	e.bus.Publish(correlationID, progress.EventPipelineCompleted, nil)
	return result
}

// failDeadlineExceeded marks result as the spec's deadline_exceeded terminal,
// for when the overall pipeline context expires before Stage 1 or Stage 3
// can otherwise settle.
func (e *Engine) failDeadlineExceeded(result PipelineResult, correlationID string) PipelineResult {
	e.bus.Publish(correlationID, progress.EventPipelineFailed, map[string]interface{}{"reason": "deadline_exceeded"})
	result.Status = "error"
	result.ErrorCode = string(core.ErrDeadlineExceeded)
	return result
}

// runStage fans out concurrently to every model in modelIDs, waits for all
// to settle, and assembles a StageResult. promptFor lets Meta use a
// per-stage-built prompt while Initial reuses the raw user prompt. deadline
// is this stage's own time budget, bounded by the overall pipeline deadline
// already carried on ctx.
func (e *Engine) runStage(ctx context.Context, correlationID string, stage Stage, modelIDs []string, stageDeadline time.Duration, promptFor func(modelID string) string) StageResult {
	started := time.Now()
	e.bus.Publish(correlationID, progress.EventStageStarted, map[string]interface{}{"stage": string(stage)})

	stageCtx, cancel := context.WithTimeout(ctx, stageDeadline)
	defer cancel()
	deadline, _ := stageCtx.Deadline()

	outputs := make(map[string]provider.ModelOutput, len(modelIDs))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(stageCtx)

	for _, modelID := range modelIDs {
		adapter, vendorName, ok := e.resolveAdapter(modelID)
		if !ok {
			mu.Lock()
			outputs[modelID] = provider.ModelOutput{ModelID: modelID, Status: provider.StatusSkipped, ErrorDetail: "unknown_model"}
			mu.Unlock()
			continue
		}

		modelID, vendorName, adapter := modelID, vendorName, adapter
		g.Go(func() error {
			out := adapter.Generate(gCtx, vendorName, promptFor(modelID), deadline)
			out.ModelID = modelID

			mu.Lock()
			outputs[modelID] = out
			mu.Unlock()

			if out.Status == provider.StatusSuccess {
				e.bus.Publish(correlationID, progress.EventModelResponded, map[string]interface{}{
					"stage": string(stage), "model_id": modelID, "latency_ms": out.LatencyMS,
				})
			} else {
				e.bus.Publish(correlationID, progress.EventModelFailed, map[string]interface{}{
					"stage": string(stage), "model_id": modelID, "reason": out.ErrorDetail,
				})
			}

			return nil
		})
	}
	_ = g.Wait()

	successCount, failureCount := 0, 0
	for _, o := range outputs {
		if o.Status == provider.StatusSuccess {
			successCount++
		} else {
			failureCount++
		}
	}

	e.bus.Publish(correlationID, progress.EventStageCompleted, map[string]interface{}{
		"stage": string(stage), "success_count": successCount, "failure_count": failureCount,
	})

	return StageResult{Stage: stage, PerModelOutputs: outputs, StartedAt: started, EndedAt: time.Now()}
}

// runUltra selects a synthesizer per the spec's ordered policy and attempts
// candidates in turn until one succeeds or all are exhausted.
func (e *Engine) runUltra(ctx context.Context, correlationID, userPrompt string, input StageResult) (StageResult, bool) {
	started := time.Now()
	e.bus.Publish(correlationID, progress.EventStageStarted, map[string]interface{}{"stage": string(StageUltra)})

	candidates := synthesizerCandidates(input, e.healthyModels(input.PerModelOutputs))
	synthesisPrompt := buildSynthesisPrompt(userPrompt, input)

	stageCtx, cancel := context.WithTimeout(ctx, e.deadlines.Ultra)
	defer cancel()
	deadline, _ := stageCtx.Deadline()

	outputs := make(map[string]provider.ModelOutput)
	for _, modelID := range candidates {
		adapter, vendorName, ok := e.resolveAdapter(modelID)
		if !ok {
			continue
		}
		out := adapter.Generate(stageCtx, vendorName, synthesisPrompt, deadline)
		out.ModelID = modelID
		outputs[modelID] = out

		if out.Status == provider.StatusSuccess {
			e.bus.Publish(correlationID, progress.EventModelResponded, map[string]interface{}{
				"stage": string(StageUltra), "model_id": modelID, "latency_ms": out.LatencyMS,
			})
			e.bus.Publish(correlationID, progress.EventStageCompleted, map[string]interface{}{
				"stage": string(StageUltra), "success_count": 1, "failure_count": len(outputs) - 1,
			})
			return StageResult{
				Stage: StageUltra, PerModelOutputs: outputs, AggregateText: out.Text,
				StartedAt: started, EndedAt: time.Now(),
			}, true
		}

		e.bus.Publish(correlationID, progress.EventModelFailed, map[string]interface{}{
			"stage": string(StageUltra), "model_id": modelID, "reason": out.ErrorDetail,
		})
	}

	e.bus.Publish(correlationID, progress.EventStageCompleted, map[string]interface{}{
		"stage": string(StageUltra), "success_count": 0, "failure_count": len(outputs),
	})
	return StageResult{Stage: StageUltra, PerModelOutputs: outputs, StartedAt: started, EndedAt: time.Now()}, false
}

func (e *Engine) resolveAdapter(modelID string) (adapter provider.Adapter, vendorModelName string, ok bool) {
	desc, found := e.reg.Resolve(modelID)
	if !found {
		return nil, "", false
	}
	a, found := e.adapters[desc.Provider]
	if !found {
		return nil, "", false
	}
	return a, desc.VendorModelName, true
}

// healthyModels returns the set of model IDs in candidates whose provider is
// currently reporting healthy, per the synthesizer selection policy's first
// preference.
func (e *Engine) healthyModels(candidates map[string]provider.ModelOutput) map[string]bool {
	out := make(map[string]bool, len(candidates))
	if e.health == nil {
		return out
	}
	snapshot := e.health()
	for modelID := range candidates {
		desc, ok := e.reg.Resolve(modelID)
		if !ok {
			continue
		}
		if h, ok := snapshot[desc.Provider]; ok && h.Status == provider.HealthHealthy {
			out[modelID] = true
		}
	}
	return out
}

func (e *Engine) recordOutcomes(result *PipelineResult, stage StageResult) {
	for modelID, out := range stage.PerModelOutputs {
		if out.Status == provider.StatusSuccess {
			result.SucceededModels[modelID] = struct{}{}
			delete(result.FailedModels, modelID)
		} else if _, already := result.SucceededModels[modelID]; !already {
			result.FailedModels[modelID] = out.ErrorDetail
		}
	}
}

func successfulModelIDs(stage StageResult) []string {
	out := make([]string, 0, len(stage.PerModelOutputs))
	for modelID, o := range stage.PerModelOutputs {
		if o.Status == provider.StatusSuccess {
			out = append(out, modelID)
		}
	}
	sort.Strings(out)
	return out
}

// synthesizerCandidates orders the previous stage's successful models per
// the spec's selection policy: healthy-provider models first (sorted), then
// every other successful model (sorted), each tried in turn until one
// succeeds.
func synthesizerCandidates(stage StageResult, healthyProviders map[string]bool) []string {
	var healthy, rest []string
	for modelID, o := range stage.PerModelOutputs {
		if o.Status != provider.StatusSuccess {
			continue
		}
		if healthyProviders[modelID] {
			healthy = append(healthy, modelID)
		} else {
			rest = append(rest, modelID)
		}
	}
	sort.Strings(healthy)
	sort.Strings(rest)
	return append(healthy, rest...)
}

func buildCritiquePrompt(userPrompt string, initial StageResult) string {
	ids := successfulModelIDs(initial)
	prompt := metaCritiquePromptPreamble + "\n\n" + userPrompt
	for _, id := range ids {
		prompt += "\n\n" + initial.PerModelOutputs[id].Text
	}
	return prompt
}

func buildSynthesisPrompt(userPrompt string, stage StageResult) string {
	ids := successfulModelIDs(stage)
	prompt := synthesisPromptPreamble + "\n\n" + userPrompt
	for _, id := range ids {
		prompt += "\n\n" + stage.PerModelOutputs[id].Text
	}
	return prompt
}
