package interfaces

import (
	"context"

	"roomsync/pkg/events"
)

// EventRouter validates inbound frames and fans them out on a topic.
type EventRouter interface {
	// RouteFrame validates frame against the sender's credentials and delivers
	// it to every local connection on the sender's topic, the sender included.
	RouteFrame(ctx context.Context, sender Connection, frame []byte) (events.Kind, error)

	// Deliver writes an already validated frame to every local connection on
	// topic and returns the number of recipients.
	Deliver(topic string, frame []byte) int
}
