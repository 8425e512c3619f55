// Package provider defines the vendor adapter contract (generate/probe) and
// the concrete OpenAI, Anthropic, and Google HTTP adapters that implement
// it. Every adapter wraps its vendor calls in a per-provider circuit breaker
// and retry policy so that transport and vendor failures never escape as a
// raised error, only as a ModelOutput or ProviderHealth value.
package provider
