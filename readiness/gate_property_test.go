package readiness

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/ultrai-project/orchestrator/provider"
	"github.com/ultrai-project/orchestrator/registry"
)

var healthStatuses = []provider.HealthStatus{
	provider.HealthHealthy,
	provider.HealthDegraded,
	provider.HealthUnavailable,
}

// TestEvaluate_PureAndDeterministic checks that Evaluate never mutates its
// inputs and always returns the same Report for the same (reg, snapshot,
// modelID), over randomized health snapshots.
func TestEvaluate_PureAndDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reg := registry.New([]registry.ModelDescriptor{
			{ID: "model-a", Provider: "openai", VendorModelName: "a"},
			{ID: "model-b", Provider: "anthropic", VendorModelName: "b"},
		})

		status := rapid.SampledFrom(healthStatuses).Draw(t, "status")
		detail := rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "detail")

		snapshot := map[string]provider.ProviderHealth{
			"openai": {Provider: "openai", Status: status, Detail: detail},
		}

		modelID := rapid.SampledFrom([]string{"model-a", "model-b", "model-unknown"}).Draw(t, "model_id")

		first := Evaluate(reg, snapshot, modelID)
		second := Evaluate(reg, snapshot, modelID)

		if first != second {
			t.Fatalf("Evaluate is not deterministic: %+v vs %+v", first, second)
		}

		if _, stillPresent := snapshot["openai"]; !stillPresent {
			t.Fatal("Evaluate mutated its snapshot argument")
		}
	})
}

// TestEvaluate_AvailabilityMatchesHealthStatus checks the status-to-
// availability mapping holds for every health status, independent of detail
// text or model identity.
func TestEvaluate_AvailabilityMatchesHealthStatus(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reg := registry.New([]registry.ModelDescriptor{
			{ID: "model-a", Provider: "openai", VendorModelName: "a"},
		})

		status := rapid.SampledFrom(healthStatuses).Draw(t, "status")
		detail := rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "detail")

		snapshot := map[string]provider.ProviderHealth{
			"openai": {Provider: "openai", Status: status, Detail: detail},
		}

		report := Evaluate(reg, snapshot, "model-a")

		switch status {
		case provider.HealthHealthy:
			if report.Availability != Available {
				t.Fatalf("healthy provider should yield Available, got %v", report.Availability)
			}
		case provider.HealthDegraded:
			if report.Availability != Degraded {
				t.Fatalf("degraded provider should yield Degraded, got %v", report.Availability)
			}
			if report.Reason != detail {
				t.Fatalf("degraded reason should echo probe detail, got %q want %q", report.Reason, detail)
			}
		default:
			if report.Availability != Unavailable {
				t.Fatalf("unavailable provider should yield Unavailable, got %v", report.Availability)
			}
		}
	})
}
