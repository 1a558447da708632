// Package identity issues the per-session participant token and contribution ids.
package identity

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// ID distinguishes a participant's own echoed frames from a peer's. It carries
// no authentication weight and lives only as long as the client process.
type ID string

// New returns a fresh random participant identity.
func New() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string { return string(id) }

// Is reports whether sender names this participant.
func (id ID) Is(sender string) bool {
	return id != "" && string(id) == sender
}

// NewContributionID returns a time-sortable id for a contribution.
func NewContributionID() string {
	return ksuid.New().String()
}
