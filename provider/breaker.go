package provider

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current mode.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes the per-provider circuit breaker guarding Generate calls.
type BreakerConfig struct {
	Threshold        int
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
	OnStateChange    func(from, to BreakerState)
}

// DefaultBreakerConfig matches the adapter's default timeout budget: five
// consecutive failures trip the breaker, a minute of quiet lets it probe again.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Threshold:        5,
		ResetTimeout:     60 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Breaker trips after Threshold consecutive failures, forcing Generate to
// short-circuit with a synthetic ModelOutput instead of reaching the vendor
// until ResetTimeout elapses and a half-open probe succeeds.
type Breaker struct {
	cfg BreakerConfig

	mu              sync.Mutex
	state           BreakerState
	failures        int
	openedAt        time.Time
	halfOpenInFlight int
}

// NewBreaker constructs a Breaker in the closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg, state: BreakerClosed}
}

// Allow reports whether a call may proceed, transitioning Open->HalfOpen once
// ResetTimeout has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.openedAt) >= b.cfg.ResetTimeout {
			b.setState(BreakerHalfOpen)
			b.halfOpenInFlight = 1
			return true
		}
		return false
	case BreakerHalfOpen:
		if b.halfOpenInFlight < b.cfg.HalfOpenMaxCalls {
			b.halfOpenInFlight++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess closes the breaker and resets its failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.halfOpenInFlight = 0
	if b.state != BreakerClosed {
		b.setState(BreakerClosed)
	}
}

// RecordFailure counts a failure, tripping the breaker open at Threshold or
// immediately on a half-open probe failure.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.halfOpenInFlight = 0
		b.openedAt = time.Now()
		b.setState(BreakerOpen)
		return
	}

	b.failures++
	if b.failures >= b.cfg.Threshold {
		b.openedAt = time.Now()
		b.setState(BreakerOpen)
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) setState(to BreakerState) {
	from := b.state
	b.state = to
	if to == BreakerClosed {
		b.failures = 0
	}
	if b.cfg.OnStateChange != nil && from != to {
		b.cfg.OnStateChange(from, to)
	}
}
