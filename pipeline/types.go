// Package pipeline implements the three-stage analysis state machine:
// Initial (fan out to every admitted model), Meta (cross-critique), and
// Ultra (single-model synthesis).
package pipeline

import (
	"sort"
	"time"

	"github.com/ultrai-project/orchestrator/provider"
)

// Stage identifies one of the three pipeline stages.
type Stage string

const (
	StageInitial Stage = "initial"
	StageMeta    Stage = "meta"
	StageUltra   Stage = "ultra"
)

// StageResult is the settled outcome of one stage.
type StageResult struct {
	Stage           Stage
	PerModelOutputs map[string]provider.ModelOutput
	AggregateText   string
	StartedAt       time.Time
	EndedAt         time.Time
}

// PipelineResult is the final artifact of one analyze() call.
type PipelineResult struct {
	CorrelationID   string
	Initial         StageResult
	Meta            *StageResult
	Ultra           StageResult
	SucceededModels map[string]struct{}
	FailedModels    map[string]string
	Status          string // "success" or "error"
	ErrorCode       string
}

// SucceededList returns SucceededModels as a sorted slice for deterministic output.
func (r PipelineResult) SucceededList() []string {
	out := make([]string, 0, len(r.SucceededModels))
	for m := range r.SucceededModels {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
