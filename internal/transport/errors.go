package transport

import (
	"errors"

	"roomsync/pkg/interfaces"
)

var (
	// ErrUnavailable means no realtime channel could be established; the
	// client runs in local mode.
	ErrUnavailable = errors.New("realtime transport unavailable")
	// ErrNotConnected is returned by Send while no channel is open. Callers
	// may ignore it; local state is already updated.
	ErrNotConnected   = interfaces.ErrNotConnected
	ErrSendBufferFull = errors.New("send buffer full")
)
