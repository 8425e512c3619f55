package progress

import (
	"testing"

	"pgregory.net/rapid"
)

var nonTerminalEventTypes = []EventType{
	EventStageStarted,
	EventModelResponded,
	EventModelFailed,
	EventStageCompleted,
}

var terminalEventTypes = []EventType{
	EventPipelineCompleted,
	EventPipelineFailed,
}

// TestBus_PublishSequenceMonotonicAndTerminalIsLast checks, over randomized
// publish sequences, that sequence numbers are gapless and strictly
// increasing from zero, and that once a terminal event has been published,
// every subsequent Publish call is a no-op.
func TestBus_PublishSequenceMonotonicAndTerminalIsLast(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewBus()
		correlationID := "corr-property"

		n := rapid.IntRange(0, 20).Draw(t, "event_count")
		terminalAt := rapid.IntRange(-1, n-1).Draw(t, "terminal_at")

		var published []Event
		seenTerminal := false

		for i := 0; i < n; i++ {
			var et EventType
			if i == terminalAt {
				et = rapid.SampledFrom(terminalEventTypes).Draw(t, "terminal_type")
			} else {
				et = rapid.SampledFrom(nonTerminalEventTypes).Draw(t, "event_type")
			}

			e := b.Publish(correlationID, et, nil)

			if seenTerminal {
				if e.CorrelationID != "" || e.Type != "" {
					t.Fatalf("expected no-op after terminal event, got %+v", e)
				}
				continue
			}

			if e.Sequence != len(published) {
				t.Fatalf("sequence not gapless: want %d, got %d", len(published), e.Sequence)
			}
			published = append(published, e)

			if e.isTerminal() {
				seenTerminal = true
			}
		}

		for i, e := range published {
			if e.Sequence != i {
				t.Fatalf("sequence %d out of order: %+v", i, e)
			}
			if e.isTerminal() && i != len(published)-1 {
				t.Fatalf("terminal event not last: index %d of %d", i, len(published))
			}
		}
	})
}
