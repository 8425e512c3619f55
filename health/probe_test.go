package health

import (
	"context"
	"testing"
	"time"

	"github.com/ultrai-project/orchestrator/provider"
)

type fakeAdapter struct {
	name   string
	health provider.ProviderHealth
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Generate(ctx context.Context, vendorModelName, prompt string, deadline time.Time) provider.ModelOutput {
	return provider.ModelOutput{ModelID: vendorModelName, Status: provider.StatusSuccess, Text: "ok"}
}

func (f *fakeAdapter) Probe(ctx context.Context) provider.ProviderHealth {
	return f.health
}

func TestProber_SnapshotBeforeFirstRefresh(t *testing.T) {
	t.Parallel()

	p := NewProber(map[string]provider.Adapter{
		"openai": &fakeAdapter{name: "openai", health: provider.ProviderHealth{Provider: "openai", Status: provider.HealthHealthy}},
	}, nil)

	snap := p.Snapshot()
	if snap["openai"].Status != provider.HealthUnavailable {
		t.Fatalf("expected unavailable before first probe, got %s", snap["openai"].Status)
	}
}

func TestProber_RefreshUpdatesSnapshot(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "openai", health: provider.ProviderHealth{Provider: "openai", Status: provider.HealthHealthy}}
	p := NewProber(map[string]provider.Adapter{"openai": adapter}, nil).WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.Snapshot()["openai"].Status == provider.HealthHealthy {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected snapshot to report healthy after refresh")
}

func TestProber_SnapshotIsIndependentCopy(t *testing.T) {
	t.Parallel()

	p := NewProber(map[string]provider.Adapter{
		"openai": &fakeAdapter{name: "openai"},
	}, nil)

	snap := p.Snapshot()
	snap["openai"] = provider.ProviderHealth{Status: provider.HealthHealthy}

	if p.Snapshot()["openai"].Status == provider.HealthHealthy {
		t.Fatalf("expected mutation of returned snapshot not to affect internal state")
	}
}
