package websocket

import "errors"

// Connection errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrInvalidJSON      = errors.New("invalid JSON data")
)

// Registry errors
var (
	ErrNilConnection              = errors.New("connection cannot be nil")
	ErrConnectionNotAuthenticated = errors.New("connection must be authenticated before registration")
)

// Handler errors
var (
	ErrInvalidParameters = errors.New("invalid connection parameters")
	ErrPasscodeRequired  = errors.New("passcode required")
	ErrPasscodeMismatch  = errors.New("passcode mismatch")
)
