package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.stageDuration)
	assert.NotNil(t, collector.modelRequests)
	assert.NotNil(t, collector.modelLatency)
	assert.NotNil(t, collector.promptTokens)
	assert.NotNil(t, collector.pipelineOutcomes)
	assert.NotNil(t, collector.readinessDenials)
	assert.NotNil(t, collector.providerHealth)
	assert.NotNil(t, collector.progressEventsTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("GET", "/test", 200, 50*time.Millisecond, 512, 1024)

	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.GreaterOrEqual(t, newCount, count)
}

func TestCollector_RecordModelRequest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordModelRequest("openai", "gpt-4o", "success", 500*time.Millisecond, 128)

	count := testutil.CollectAndCount(collector.modelRequests)
	assert.Greater(t, count, 0)

	tokensCount := testutil.CollectAndCount(collector.promptTokens)
	assert.Greater(t, tokensCount, 0)
}

func TestCollector_RecordModelRequest_ZeroTokensSkipsHistogram(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordModelRequest("openai", "gpt-4o", "failed", 10*time.Millisecond, 0)

	count := testutil.CollectAndCount(collector.promptTokens)
	assert.Equal(t, 0, count)
}

func TestCollector_RecordStageDuration(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordStageDuration("initial", 2*time.Second)

	count := testutil.CollectAndCount(collector.stageDuration)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordPipelineOutcome(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordPipelineOutcome("success", "")
	collector.RecordPipelineOutcome("error", "INITIAL_ALL_FAILED")

	count := testutil.CollectAndCount(collector.pipelineOutcomes)
	assert.Equal(t, 2, count)
}

func TestCollector_RecordReadinessDenial(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordReadinessDenial("gpt-4o", "provider_unavailable")

	count := testutil.CollectAndCount(collector.readinessDenials)
	assert.Greater(t, count, 0)
}

func TestCollector_SetProviderHealth(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.SetProviderHealth("openai", 1.0)
	collector.SetProviderHealth("anthropic", 0.5)

	count := testutil.CollectAndCount(collector.providerHealth)
	assert.Equal(t, 2, count)
}

func TestCollector_RecordProgressEvent(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordProgressEvent("stage_started")
	collector.RecordProgressEvent("pipeline_completed")

	count := testutil.CollectAndCount(collector.progressEventsTotal)
	assert.Equal(t, 2, count)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)
			collector.RecordModelRequest("openai", "gpt-4o", "success", 500*time.Millisecond, 64)
			collector.RecordProgressEvent("model_responded")
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	httpCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, httpCount, 0)

	modelCount := testutil.CollectAndCount(collector.modelRequests)
	assert.Greater(t, modelCount, 0)

	progressCount := testutil.CollectAndCount(collector.progressEventsTotal)
	assert.Greater(t, progressCount, 0)
}

func TestCollector_MetricsRegistration(t *testing.T) {
	logger := zap.NewNop()

	registry := prometheus.NewRegistry()

	collector := NewCollector(nextTestNamespace(), logger)

	registry.MustRegister(collector.httpRequestsTotal)
	registry.MustRegister(collector.httpRequestDuration)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 0, 0)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)
}
