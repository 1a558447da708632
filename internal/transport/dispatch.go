package transport

import (
	"sync"

	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// dispatcher fans received frames out to per-kind handlers and status changes
// to status listeners. Shared by every transport in this package.
type dispatcher struct {
	mu       sync.RWMutex
	status   interfaces.Status
	handlers map[events.Kind][]interfaces.Handler
	watchers []func(interfaces.Status)
}

func newDispatcher(initial interfaces.Status) *dispatcher {
	return &dispatcher{
		status:   initial,
		handlers: make(map[events.Kind][]interfaces.Handler),
	}
}

func (d *dispatcher) OnEvent(kind events.Kind, h interfaces.Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	d.handlers[kind] = append(d.handlers[kind], h)
	d.mu.Unlock()
}

func (d *dispatcher) OnStatus(fn func(interfaces.Status)) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.watchers = append(d.watchers, fn)
	d.mu.Unlock()
}

func (d *dispatcher) Status() interfaces.Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

func (d *dispatcher) setStatus(s interfaces.Status) {
	d.mu.Lock()
	if d.status == s {
		d.mu.Unlock()
		return
	}
	d.status = s
	watchers := append([]func(interfaces.Status){}, d.watchers...)
	d.mu.Unlock()

	for _, fn := range watchers {
		fn(s)
	}
}

func (d *dispatcher) dispatch(env events.Envelope) {
	d.mu.RLock()
	hs := append([]interfaces.Handler(nil), d.handlers[env.Kind]...)
	d.mu.RUnlock()

	for _, h := range hs {
		h(env)
	}
}
