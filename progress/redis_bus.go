package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus is a Redis-backed EventBus: events are appended to a per-
// correlation_id list (bounded and EXPIREd, for replay to late subscribers)
// and simultaneously published on a per-correlation_id pub/sub channel (for
// subscribers already attached). It lets the streaming HTTP endpoint run in
// a different process than the Pipeline Engine, which the in-process Bus
// cannot do.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger

	mu      sync.Mutex
	nextSeq map[string]int
}

// NewRedisBus constructs a RedisBus over client.
func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client:  client,
		logger:  logger,
		nextSeq: make(map[string]int),
	}
}

// Close releases the underlying Redis connection pool.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

func eventsKey(correlationID string) string {
	return fmt.Sprintf("progress:events:%s", correlationID)
}

func channelKey(correlationID string) string {
	return fmt.Sprintf("progress:channel:%s", correlationID)
}

// Publish appends one event to correlationID's Redis list and publishes it
// on correlationID's pub/sub channel. Publishing after a terminal event has
// already been published is a no-op, mirroring the in-process Bus.
func (b *RedisBus) Publish(correlationID string, eventType EventType, payload map[string]interface{}) Event {
	ctx := context.Background()

	b.mu.Lock()
	seq, terminal := b.nextSeq[correlationID], false
	if seq < 0 {
		terminal = true
	} else {
		b.nextSeq[correlationID] = seq + 1
	}
	b.mu.Unlock()

	if terminal {
		return Event{}
	}

	e := Event{
		CorrelationID: correlationID,
		Sequence:      seq,
		Type:          eventType,
		Payload:       payload,
		EmittedAt:     time.Now(),
	}

	data, err := json.Marshal(e)
	if err != nil {
		b.logger.Error("failed to marshal progress event", zap.Error(err), zap.String("correlation_id", correlationID))
		return e
	}

	key := eventsKey(correlationID)
	pipe := b.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -ringBufferSize, -1)
	pipe.Expire(ctx, key, retentionGrace+5*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		b.logger.Error("failed to persist progress event", zap.Error(err), zap.String("correlation_id", correlationID))
	}

	if err := b.client.Publish(ctx, channelKey(correlationID), data).Err(); err != nil {
		b.logger.Error("failed to publish progress event", zap.Error(err), zap.String("correlation_id", correlationID))
	}

	if e.isTerminal() {
		b.mu.Lock()
		b.nextSeq[correlationID] = -1
		b.mu.Unlock()
	}

	return e
}

// Subscribe replays correlationID's buffered events from Redis, then
// streams anything published afterward, deduplicating on sequence number
// since the pub/sub subscription is established before the replay read
// completes. The returned channel closes once the terminal event has been
// delivered, the context is cancelled, or cancel is called.
func (b *RedisBus) Subscribe(ctx context.Context, correlationID string) (<-chan Event, func()) {
	out := make(chan Event, subscriberBufSize)

	pubsub := b.client.Subscribe(ctx, channelKey(correlationID))
	liveCh := pubsub.Channel()

	cancelled := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(cancelled) })
		_ = pubsub.Close()
	}

	go func() {
		defer close(out)
		defer pubsub.Close()

		lastSent := -1

		replay, err := b.client.LRange(ctx, eventsKey(correlationID), 0, -1).Result()
		if err != nil {
			b.logger.Error("failed to replay progress events", zap.Error(err), zap.String("correlation_id", correlationID))
		}

		for _, raw := range replay {
			var e Event
			if err := json.Unmarshal([]byte(raw), &e); err != nil {
				continue
			}
			select {
			case out <- e:
				lastSent = e.Sequence
			case <-ctx.Done():
				return
			case <-cancelled:
				return
			}
			if e.isTerminal() {
				return
			}
		}

		for {
			select {
			case msg, ok := <-liveCh:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}
				if e.Sequence <= lastSent {
					continue
				}
				select {
				case out <- e:
					lastSent = e.Sequence
				case <-ctx.Done():
					return
				case <-cancelled:
					return
				}
				if e.isTerminal() {
					return
				}
			case <-ctx.Done():
				return
			case <-cancelled:
				return
			}
		}
	}()

	return out, cancel
}
