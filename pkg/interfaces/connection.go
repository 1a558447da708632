package interfaces

import "roomsync/pkg/events"

// Connection is one relay-side websocket peer bound to a room topic.
type Connection interface {
	// WriteMessage queues a raw text frame. Writes are serialised by a
	// single writer goroutine.
	WriteMessage(data []byte) error

	// WriteJSON marshals v and queues it.
	WriteJSON(v interface{}) error

	Close() error

	// GetParticipantID returns the identity the peer declared on connect.
	GetParticipantID() string

	GetRole() events.Role

	GetTopic() string

	IsAuthenticated() bool

	// SetCredentials binds the peer to an identity, role and topic after the
	// upgrade request has been validated.
	SetCredentials(participantID string, role events.Role, topic string) error
}
