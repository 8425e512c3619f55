package provider

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the per-provider settings every concrete adapter needs:
// where to send requests and how to authenticate them.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// OutboundRPS caps outbound requests per second to this vendor; zero
	// means unlimited. Proactive back-off ahead of a 429, distinct from the
	// reactive circuit breaker.
	OutboundRPS float64
	BurstSize   int

	// MaxRetries overrides DefaultRetryPolicy's retry budget for this
	// adapter; zero keeps the default.
	MaxRetries int
}

// base bundles the HTTP client, retry policy, circuit breaker, and outbound
// rate limiter shared by every concrete adapter. Concrete adapters embed it
// and supply the vendor-specific request builder and response parser.
type base struct {
	name    string
	cfg     Config
	client  *http.Client
	retry   RetryPolicy
	breaker *Breaker
	limiter *rate.Limiter
}

func newBase(name string, cfg Config) base {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.OutboundRPS > 0 {
		burst := cfg.BurstSize
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.OutboundRPS), burst)
	}

	retryPolicy := DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retryPolicy.MaxRetries = cfg.MaxRetries
	}

	return base{
		name:    name,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		retry:   retryPolicy,
		breaker: NewBreaker(DefaultBreakerConfig()),
		limiter: limiter,
	}
}

func (b *base) Name() string { return b.name }

// generate runs attempt under the retry policy and circuit breaker, turning
// whatever it reports into a ModelOutput. attempt performs exactly one HTTP
// round trip and returns the text on success.
func (b *base) generate(ctx context.Context, modelID, prompt string, deadline time.Time, attempt func(ctx context.Context) (text string, status int, err error)) ModelOutput {
	started := time.Now()

	if !b.breaker.Allow() {
		return ModelOutput{
			ModelID:     modelID,
			Status:      StatusFailed,
			LatencyMS:   time.Since(started).Milliseconds(),
			ErrorDetail: "provider_unavailable: circuit breaker open",
		}
	}

	if d, ok := ctx.Deadline(); !ok || deadline.Before(d) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return ModelOutput{
				ModelID:     modelID,
				Status:      StatusTimeout,
				LatencyMS:   time.Since(started).Milliseconds(),
				ErrorDetail: "deadline_exceeded: outbound rate limit wait",
			}
		}
	}

	promptTokens := estimateTokens(prompt)

	var text string
	status, err := b.retry.do(ctx, func(attemptCtx context.Context) (int, error) {
		var attemptStatus int
		var callErr error
		text, attemptStatus, callErr = attempt(attemptCtx)
		return attemptStatus, callErr
	})

	if ctx.Err() != nil && status == 0 {
		b.breaker.RecordFailure()
		return ModelOutput{
			ModelID:     modelID,
			Status:      StatusTimeout,
			LatencyMS:   time.Since(started).Milliseconds(),
			ErrorDetail: "deadline_exceeded",
		}
	}

	if err != nil || status < 200 || status >= 300 {
		b.breaker.RecordFailure()
		outStatus, detail := outputForStatus(status, errMessage(err))
		return ModelOutput{
			ModelID:     modelID,
			Status:      outStatus,
			LatencyMS:   time.Since(started).Milliseconds(),
			ErrorDetail: detail,
		}
	}

	b.breaker.RecordSuccess()
	return ModelOutput{
		ModelID:              modelID,
		Text:                 text,
		Status:               StatusSuccess,
		LatencyMS:            time.Since(started).Milliseconds(),
		PromptTokensEstimate: promptTokens,
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
