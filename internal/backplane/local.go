package backplane

import (
	"context"
	"sync"
)

// Bus is an in-process backplane shared by several Local instances, used to
// run more than one relay in a single process and in tests.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]Handler)}
}

func (b *Bus) publish(msg message) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for origin, h := range b.subs {
		if origin != msg.Origin {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(msg.Topic, msg.Frame)
	}
}

// Local attaches one relay instance to a Bus.
type Local struct {
	bus        *Bus
	instanceID string

	mu         sync.Mutex
	subscribed bool
	closed     bool
}

var _ Backplane = (*Local)(nil)

// NewLocal joins bus as instanceID. A nil bus gives the instance a private
// bus, which makes publishing a no-op.
func NewLocal(bus *Bus, instanceID string) *Local {
	if bus == nil {
		bus = NewBus()
	}
	return &Local{bus: bus, instanceID: instanceID}
}

func (l *Local) Publish(ctx context.Context, topic string, frame []byte) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.bus.publish(message{Origin: l.instanceID, Topic: topic, Frame: frame})
	return nil
}

func (l *Local) Subscribe(ctx context.Context, h Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.subscribed {
		return ErrAlreadySubscribed
	}
	l.subscribed = true

	l.bus.mu.Lock()
	l.bus.subs[l.instanceID] = h
	l.bus.mu.Unlock()
	return nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	l.bus.mu.Lock()
	delete(l.bus.subs, l.instanceID)
	l.bus.mu.Unlock()
	return nil
}
