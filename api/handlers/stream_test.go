package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultrai-project/orchestrator/api"
	"github.com/ultrai-project/orchestrator/progress"
	"go.uber.org/zap"
)

func TestStreamHandler_HandleSSE_MissingCorrelationID(t *testing.T) {
	h := NewStreamHandler(progress.NewBus(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/orchestrator/stream", nil)
	w := httptest.NewRecorder()

	h.HandleSSE(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamHandler_HandleSSE_ReplaysBufferedEvents(t *testing.T) {
	bus := progress.NewBus()
	bus.Publish("corr-1", progress.EventStageStarted, map[string]interface{}{"stage": "initial"})
	bus.Publish("corr-1", progress.EventPipelineCompleted, nil)

	h := NewStreamHandler(bus, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/orchestrator/stream?correlation_id=corr-1", nil)
	w := httptest.NewRecorder()

	h.HandleSSE(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "stage_started")
	assert.Contains(t, body, "pipeline_completed")

	scanner := bufio.NewScanner(strings.NewReader(body))
	frames := 0
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data: ") {
			frames++
		}
	}
	assert.Equal(t, 2, frames)
}

func TestStreamHandler_HandleWS_ReplaysBufferedEvents(t *testing.T) {
	bus := progress.NewBus()
	bus.Publish("corr-ws", progress.EventStageStarted, map[string]interface{}{"stage": "initial"})
	bus.Publish("corr-ws", progress.EventPipelineCompleted, nil)

	h := NewStreamHandler(bus, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?correlation_id=corr-ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var first, second api.StreamEvent
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	require.NoError(t, wsjson.Read(ctx, conn, &second))

	assert.Equal(t, "stage_started", first.Type)
	assert.Equal(t, "pipeline_completed", second.Type)

	conn.Close(websocket.StatusNormalClosure, "")
}
