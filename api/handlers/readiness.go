package handlers

import (
	"net/http"

	"github.com/ultrai-project/orchestrator/api"
	"github.com/ultrai-project/orchestrator/pipeline"
	"github.com/ultrai-project/orchestrator/readiness"
	"github.com/ultrai-project/orchestrator/registry"
)

// ReadinessHandler answers GET /api/orchestrator/readiness from the current
// health snapshot, via the pure readiness gate.
type ReadinessHandler struct {
	reg    *registry.Registry
	health pipeline.HealthSnapshot
}

// NewReadinessHandler builds a ReadinessHandler bound to reg and health.
func NewReadinessHandler(reg *registry.Registry, health pipeline.HealthSnapshot) *ReadinessHandler {
	return &ReadinessHandler{reg: reg, health: health}
}

func (h *ReadinessHandler) Handle(w http.ResponseWriter, r *http.Request) {
	reports := readiness.EvaluateAll(h.reg, h.health())

	resp := api.ReadinessResponse{Models: make([]api.ReadinessEntry, 0, len(reports))}
	for _, rep := range reports {
		resp.Models = append(resp.Models, api.ReadinessEntry{
			ModelID:      rep.ModelID,
			Availability: string(rep.Availability),
			Reason:       rep.Reason,
		})
	}
	WriteSuccess(w, resp)
}
