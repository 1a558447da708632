package events

import "errors"

var (
	ErrUnknownKind     = errors.New("unknown event kind")
	ErrEmptySender     = errors.New("sender identity is required")
	ErrMalformed       = errors.New("malformed event payload")
	ErrMissingID       = errors.New("contribution id is required")
	ErrPayloadTooLarge = errors.New("event payload exceeds 64KB limit")
)
