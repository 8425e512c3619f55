package provider

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// estimateTokens best-effort counts prompt is's tokens for observability
// only; it is never used to enforce the character-count prompt bound, which
// stays a plain character count upstream. cl100k_base approximates every
// vendor closely enough for a dashboard figure.
var estimateTokens = newTokenEstimator()

func newTokenEstimator() func(prompt string) int {
	var (
		once sync.Once
		enc  *tiktoken.Tiktoken
	)
	load := func() {
		enc, _ = tiktoken.GetEncoding("cl100k_base")
	}
	return func(prompt string) int {
		once.Do(load)
		if enc == nil {
			return 0
		}
		return len(enc.Encode(prompt, nil, nil))
	}
}
