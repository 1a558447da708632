package interfaces

import (
	"context"

	"roomsync/pkg/events"
)

// Status is the passive connection indicator shown to participants.
type Status string

const (
	StatusConnecting  Status = "connecting"
	StatusConnected   Status = "connected"
	StatusUnavailable Status = "unavailable"
)

// Handler receives one remote frame. The sender identity travels in env.Sender.
type Handler func(env events.Envelope)

// Transport binds a client to one room topic.
//
// Delivery is at-most-once and unordered across senders, and a reconnecting
// client receives nothing sent while it was away. Callers must not assume
// stream ordering.
type Transport interface {
	// Connect attempts to join topic. A failure leaves the transport
	// unavailable; callers keep working against local state.
	Connect(ctx context.Context, topic string) error

	// OnEvent registers h for every received frame of kind.
	OnEvent(kind events.Kind, h Handler)

	// OnStatus registers fn for status transitions.
	OnStatus(fn func(Status))

	// Send publishes env fire-and-forget.
	Send(env events.Envelope) error

	Status() Status

	// Disconnect is idempotent and safe before Connect.
	Disconnect() error
}
