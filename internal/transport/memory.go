package transport

import (
	"context"
	"sync"

	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// MemoryBus is an in-process room. Every frame is delivered synchronously to
// every transport on the topic, the sender included, like the relay does.
type MemoryBus struct {
	mu     sync.RWMutex
	topics map[string]map[*MemoryTransport]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{topics: make(map[string]map[*MemoryTransport]struct{})}
}

// NewTransport returns an unconnected transport on b.
func (b *MemoryBus) NewTransport() *MemoryTransport {
	return &MemoryTransport{bus: b, dispatcher: newDispatcher(interfaces.StatusConnecting)}
}

// Members returns the number of transports joined to topic.
func (b *MemoryBus) Members(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *MemoryBus) join(topic string, t *MemoryTransport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*MemoryTransport]struct{})
	}
	b.topics[topic][t] = struct{}{}
}

func (b *MemoryBus) leave(topic string, t *MemoryTransport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.topics[topic], t)
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}

func (b *MemoryBus) publish(topic string, env events.Envelope) {
	b.mu.RLock()
	members := make([]*MemoryTransport, 0, len(b.topics[topic]))
	for t := range b.topics[topic] {
		members = append(members, t)
	}
	b.mu.RUnlock()

	for _, t := range members {
		t.dispatch(env)
	}
}

type MemoryTransport struct {
	*dispatcher
	bus *MemoryBus

	mu    sync.Mutex
	topic string
}

func (t *MemoryTransport) Connect(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		t.setStatus(interfaces.StatusUnavailable)
		return ErrUnavailable
	}
	t.mu.Lock()
	if t.topic != "" {
		t.bus.leave(t.topic, t)
	}
	t.topic = topic
	t.mu.Unlock()

	t.bus.join(topic, t)
	t.setStatus(interfaces.StatusConnected)
	return nil
}

func (t *MemoryTransport) Send(env events.Envelope) error {
	t.mu.Lock()
	topic := t.topic
	t.mu.Unlock()
	if topic == "" {
		return ErrNotConnected
	}
	t.bus.publish(topic, env)
	return nil
}

func (t *MemoryTransport) Disconnect() error {
	t.mu.Lock()
	topic := t.topic
	t.topic = ""
	t.mu.Unlock()
	if topic != "" {
		t.bus.leave(topic, t)
	}
	t.setStatus(interfaces.StatusUnavailable)
	return nil
}
