package activity

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrEmptyInsight      = errors.New("insight must not be empty")

	ErrNoActors   = errors.New("actor set is empty")
	ErrActorIndex = errors.New("actor index out of range")
	ErrNotPlacing = errors.New("map is not accepting placements")

	ErrNotInPool         = errors.New("item is not in the diamond pool")
	ErrDiamondFull       = errors.New("diamond already holds nine items")
	ErrDiamondIncomplete = errors.New("diamond needs exactly nine items")
	ErrAlreadySubmitted  = errors.New("diamond already submitted")
	ErrUnknownTopic      = errors.New("unknown diamond topic")
)
