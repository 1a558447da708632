package authority

import "errors"

var (
	ErrNotTeacher          = errors.New("navigation is teacher-only")
	ErrInvalidPhase        = errors.New("phase out of range")
	ErrUnknownActivity     = errors.New("unknown activity")
	ErrActivityUnavailable = errors.New("activity not available in current phase")
	ErrPromptOutOfRange    = errors.New("prompt index out of range")
	ErrUnknownActorSet     = errors.New("unknown actor set")
	ErrEmptyThemeSets      = errors.New("theme sets must not be empty")
	ErrEmptyCheckinItems   = errors.New("check-in items must not be empty")
)
