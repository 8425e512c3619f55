package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/ultrai-project/orchestrator/api"
	"github.com/ultrai-project/orchestrator/core"
	"github.com/ultrai-project/orchestrator/progress"
	"go.uber.org/zap"
)

// StreamHandler subscribes callers to progress events for a correlation_id,
// over SSE (GET /api/orchestrator/stream) or WebSocket (GET
// /api/orchestrator/stream/ws).
type StreamHandler struct {
	bus    progress.Subscriber
	logger *zap.Logger
}

// NewStreamHandler builds a StreamHandler bound to bus. bus only needs to
// subscribe; the in-process progress.Bus and the Redis-backed
// progress.RedisBus both satisfy progress.Subscriber.
func NewStreamHandler(bus progress.Subscriber, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{bus: bus, logger: logger}
}

// HandleSSE streams events as text/event-stream frames until the stream
// terminates or the client disconnects.
func (h *StreamHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	correlationID := r.URL.Query().Get("correlation_id")
	if correlationID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, core.ErrInvalidRequest, "correlation_id is required", h.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteErrorMessage(w, http.StatusInternalServerError, core.ErrInternalError, "streaming unsupported", h.logger)
		return
	}

	events, cancel := h.bus.Subscribe(r.Context(), correlationID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for evt := range events {
		frame, err := json.Marshal(toStreamEvent(evt))
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
	}
}

// HandleWS streams events over a WebSocket connection.
func (h *StreamHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	correlationID := r.URL.Query().Get("correlation_id")
	if correlationID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, core.ErrInvalidRequest, "correlation_id is required", h.logger)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	events, cancel := h.bus.Subscribe(ctx, correlationID)
	defer cancel()

	for evt := range events {
		if err := writeWSEvent(ctx, conn, toStreamEvent(evt)); err != nil {
			h.logger.Debug("stream client disconnected", zap.Error(err), zap.String("correlation_id", correlationID))
			return
		}
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func writeWSEvent(ctx context.Context, conn *websocket.Conn, v api.StreamEvent) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func toStreamEvent(evt progress.Event) api.StreamEvent {
	return api.StreamEvent{
		CorrelationID: evt.CorrelationID,
		Sequence:      evt.Sequence,
		Type:          string(evt.Type),
		Payload:       evt.Payload,
		EmittedAt:     evt.EmittedAt,
	}
}
