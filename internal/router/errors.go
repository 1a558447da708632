package router

import "errors"

var (
	ErrSenderNotAuthenticated = errors.New("sender not authenticated")
	ErrFrameTooLarge          = errors.New("frame too large")
	ErrInvalidFrame           = errors.New("invalid frame")
	ErrSenderMismatch         = errors.New("envelope sender does not match connection")
	ErrUnauthorizedKind       = errors.New("role not allowed to send event kind")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
)
