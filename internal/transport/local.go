package transport

import (
	"context"

	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

// LocalTransport is the single-client fallback. Nothing is sent or received.
type LocalTransport struct {
	*dispatcher
}

func NewLocal() *LocalTransport {
	return &LocalTransport{dispatcher: newDispatcher(interfaces.StatusUnavailable)}
}

func (t *LocalTransport) Connect(ctx context.Context, topic string) error {
	return ErrUnavailable
}

func (t *LocalTransport) Send(env events.Envelope) error {
	return ErrNotConnected
}

func (t *LocalTransport) Disconnect() error {
	return nil
}
