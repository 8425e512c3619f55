package readiness

import (
	"testing"

	"github.com/ultrai-project/orchestrator/provider"
	"github.com/ultrai-project/orchestrator/registry"
)

func testRegistry() *registry.Registry {
	return registry.New([]registry.ModelDescriptor{
		{ID: "gpt-5", Provider: "openai", VendorModelName: "gpt-5"},
		{ID: "claude-opus", Provider: "anthropic", VendorModelName: "claude-opus-4"},
	})
}

func TestEvaluate_Healthy(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	snap := map[string]provider.ProviderHealth{
		"openai": {Provider: "openai", Status: provider.HealthHealthy},
	}

	r := Evaluate(reg, snap, "gpt-5")
	if r.Availability != Available {
		t.Fatalf("expected available, got %s", r.Availability)
	}
}

func TestEvaluate_Degraded(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	snap := map[string]provider.ProviderHealth{
		"openai": {Provider: "openai", Status: provider.HealthDegraded, Detail: "rate_limited"},
	}

	r := Evaluate(reg, snap, "gpt-5")
	if r.Availability != Degraded {
		t.Fatalf("expected degraded, got %s", r.Availability)
	}
	if r.Reason != "rate_limited" {
		t.Fatalf("expected reason to carry probe detail, got %s", r.Reason)
	}
}

func TestEvaluate_UnavailableAndNotYetProbed(t *testing.T) {
	t.Parallel()

	reg := testRegistry()

	r := Evaluate(reg, map[string]provider.ProviderHealth{}, "gpt-5")
	if r.Availability != Unavailable || r.Reason != "not_yet_probed" {
		t.Fatalf("expected not_yet_probed, got %+v", r)
	}

	snap := map[string]provider.ProviderHealth{
		"openai": {Provider: "openai", Status: provider.HealthUnavailable, Detail: "connection_refused"},
	}
	r = Evaluate(reg, snap, "gpt-5")
	if r.Availability != Unavailable || r.Reason != "connection_refused" {
		t.Fatalf("expected unavailable with detail, got %+v", r)
	}
}

func TestEvaluate_UnknownModel(t *testing.T) {
	t.Parallel()

	r := Evaluate(testRegistry(), map[string]provider.ProviderHealth{}, "does-not-exist")
	if r.Availability != Unavailable || r.Reason != "unknown_model" {
		t.Fatalf("expected unknown_model, got %+v", r)
	}
}

func TestEvaluate_IsPureAndDeterministic(t *testing.T) {
	t.Parallel()

	reg := testRegistry()
	snap := map[string]provider.ProviderHealth{
		"openai":    {Provider: "openai", Status: provider.HealthHealthy},
		"anthropic": {Provider: "anthropic", Status: provider.HealthDegraded, Detail: "slow_response"},
	}

	first := EvaluateAll(reg, snap)
	second := EvaluateAll(reg, snap)
	if len(first) != len(second) {
		t.Fatalf("expected stable report count")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected identical reports across calls, got %+v vs %+v", first[i], second[i])
		}
	}
}
