// Package health maintains the current reachability classification of each
// provider by periodically probing it in the background, exposing a
// non-blocking, wait-free snapshot to readers.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ultrai-project/orchestrator/provider"
	"go.uber.org/zap"
)

const defaultRefreshInterval = 60 * time.Second

// Prober keeps an up-to-date ProviderHealth for each registered adapter.
// Snapshot reads never block on the refresh loop: each refresh builds a new
// map and swaps it in atomically.
type Prober struct {
	adapters map[string]provider.Adapter
	interval time.Duration
	logger   *zap.Logger

	current atomic.Pointer[map[string]provider.ProviderHealth]

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewProber builds a Prober over adapters, keyed by provider name. Every
// provider starts reporting unavailable/not_yet_probed until the first
// refresh completes.
func NewProber(adapters map[string]provider.Adapter, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Prober{adapters: adapters, interval: defaultRefreshInterval, logger: logger}

	initial := make(map[string]provider.ProviderHealth, len(adapters))
	for name := range adapters {
		initial[name] = provider.ProviderHealth{Provider: name, Status: provider.HealthUnavailable, Detail: "not_yet_probed"}
	}
	p.current.Store(&initial)
	return p
}

// WithInterval overrides the default 60s refresh cadence; intended for tests.
func (p *Prober) WithInterval(d time.Duration) *Prober {
	p.interval = d
	return p
}

// Start launches the background refresh loop. It is idempotent: calling
// Start twice without an intervening Stop is a no-op.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.stopped = make(chan struct{})

	p.refreshOnce(loopCtx)

	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				p.refreshOnce(loopCtx)
			}
		}
	}()
}

// Stop halts the background refresh loop and waits for it to exit.
func (p *Prober) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	stopped := p.stopped
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Snapshot returns the most recently probed ProviderHealth for every
// provider. It never blocks on an in-flight refresh.
func (p *Prober) Snapshot() map[string]provider.ProviderHealth {
	m := *p.current.Load()
	out := make(map[string]provider.ProviderHealth, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// refreshOnce probes every adapter and swaps in the new snapshot. A probe
// failure never propagates: it is folded into that provider's
// ProviderHealth, the loop continues for every other provider.
func (p *Prober) refreshOnce(ctx context.Context) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	next := make(map[string]provider.ProviderHealth, len(p.adapters))

	for name, adapter := range p.adapters {
		wg.Add(1)
		go func(name string, adapter provider.Adapter) {
			defer wg.Done()
			h := adapter.Probe(ctx)
			mu.Lock()
			next[name] = h
			mu.Unlock()
		}(name, adapter)
	}
	wg.Wait()

	p.current.Store(&next)
	p.logger.Debug("health probe refresh complete", zap.Int("providers", len(next)))
}
