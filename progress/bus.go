package progress

import (
	"context"
	"sync"
	"time"
)

const (
	ringBufferSize    = 256
	subscriberBufSize = 256
	retentionGrace    = 60 * time.Second
)

// stream holds the state for one correlation_id: its emitted events (bounded
// ring, for replay to late subscribers) and the set of live subscribers.
type stream struct {
	mu       sync.Mutex
	nextSeq  int
	events   []Event
	subs     map[int]*subscriberChannel
	nextSub  int
	terminal bool
	done     chan struct{}
}

func newStream() *stream {
	return &stream{subs: make(map[int]*subscriberChannel), done: make(chan struct{})}
}

// Bus fans out ProgressEvents per correlation_id to any number of
// subscribers, assigning each event a strictly increasing sequence number.
type Bus struct {
	mu      sync.Mutex
	streams map[string]*stream
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{streams: make(map[string]*stream)}
}

func (b *Bus) streamFor(correlationID string) *stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.streams[correlationID]
	if !ok {
		s = newStream()
		b.streams[correlationID] = s
	}
	return s
}

// Publish appends one event to correlationID's stream, assigning it the next
// sequence number, and delivers it to every live subscriber. Publishing after
// a terminal event has already been published is a no-op.
func (b *Bus) Publish(correlationID string, eventType EventType, payload map[string]interface{}) Event {
	s := b.streamFor(correlationID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal {
		return Event{}
	}

	e := Event{
		CorrelationID: correlationID,
		Sequence:      s.nextSeq,
		Type:          eventType,
		Payload:       payload,
		EmittedAt:     time.Now(),
	}
	s.nextSeq++

	s.events = append(s.events, e)
	if len(s.events) > ringBufferSize {
		s.events = s.events[len(s.events)-ringBufferSize:]
	}

	for _, sub := range s.subs {
		sub.trySend(e)
	}

	if e.isTerminal() {
		s.terminal = true
		close(s.done)
		go b.expire(correlationID, retentionGrace)
	}

	return e
}

// expire removes correlationID's stream after grace once it has gone
// terminal, closing out any subscribers still attached.
func (b *Bus) expire(correlationID string, grace time.Duration) {
	time.Sleep(grace)

	b.mu.Lock()
	s, ok := b.streams[correlationID]
	if ok {
		delete(b.streams, correlationID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
}

// Subscribe returns a channel of Events for correlationID in sequence order,
// replaying anything already buffered, and a cancel func to detach early.
// The returned channel closes once the terminal event has been delivered.
func (b *Bus) Subscribe(ctx context.Context, correlationID string) (<-chan Event, func()) {
	s := b.streamFor(correlationID)

	s.mu.Lock()
	sub := newSubscriberChannel(subscriberBufSize)
	for _, e := range s.events {
		sub.trySend(e)
	}
	alreadyTerminal := s.terminal
	id := s.nextSub
	s.nextSub++
	if !alreadyTerminal {
		s.subs[id] = sub
	}
	s.mu.Unlock()

	out := make(chan Event, subscriberBufSize)
	cancelled := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(cancelled) })
	}

	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-sub.ch:
				if !ok {
					return
				}
				select {
				case out <- e:
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

	if alreadyTerminal {
		sub.close()
	}

	return out, func() {
		cancel()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
