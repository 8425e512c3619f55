// Package readiness resolves a model ID plus the current provider health
// snapshot into an availability decision for that model.
package readiness

import (
	"github.com/ultrai-project/orchestrator/provider"
	"github.com/ultrai-project/orchestrator/registry"
)

// Availability is whether a model may be dispatched to right now.
type Availability string

const (
	Available   Availability = "available"
	Degraded    Availability = "degraded"
	Unavailable Availability = "unavailable"
)

// Report is the readiness decision for one model.
type Report struct {
	ModelID      string
	Availability Availability
	Reason       string
}

// Evaluate is a pure function: resolve modelID in reg, look up its
// provider's health in snapshot, and classify availability. Healthy
// providers yield Available; degraded providers yield Degraded annotated
// with the probe detail; unavailable, not-yet-probed, or unknown providers
// yield Unavailable with a reason. An unknown model ID also yields
// Unavailable.
func Evaluate(reg *registry.Registry, snapshot map[string]provider.ProviderHealth, modelID string) Report {
	desc, ok := reg.Resolve(modelID)
	if !ok {
		return Report{ModelID: modelID, Availability: Unavailable, Reason: "unknown_model"}
	}

	h, ok := snapshot[desc.Provider]
	if !ok {
		return Report{ModelID: modelID, Availability: Unavailable, Reason: "not_yet_probed"}
	}

	switch h.Status {
	case provider.HealthHealthy:
		return Report{ModelID: modelID, Availability: Available}
	case provider.HealthDegraded:
		return Report{ModelID: modelID, Availability: Degraded, Reason: h.Detail}
	default:
		reason := h.Detail
		if reason == "" {
			reason = "provider_unavailable"
		}
		return Report{ModelID: modelID, Availability: Unavailable, Reason: reason}
	}
}

// EvaluateAll evaluates every model in reg against snapshot.
func EvaluateAll(reg *registry.Registry, snapshot map[string]provider.ProviderHealth) []Report {
	descs := reg.All()
	reports := make([]Report, 0, len(descs))
	for _, d := range descs {
		reports = append(reports, Evaluate(reg, snapshot, d.ID))
	}
	return reports
}
