package room

import "errors"

var (
	ErrInvalidRole        = errors.New("role must be teacher or student")
	ErrEmptyTopic         = errors.New("topic must not be empty")
	ErrEmptyText          = errors.New("text must not be empty")
	ErrNoItems            = errors.New("no check-in items selected")
	ErrUnknownReaction    = errors.New("unknown reaction")
	ErrUnknownVoice       = errors.New("unknown voice")
	ErrUnknownActor       = errors.New("actor id must not be empty")
	ErrDuplicateRole      = errors.New("role already exists")
	ErrUnknownPerspective = errors.New("perspective role must have a name")
)
