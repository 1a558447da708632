package interfaces

import "errors"

var (
	ErrNotConnected = errors.New("transport not connected")
	ErrUnauthorized = errors.New("unauthorized access")
)
