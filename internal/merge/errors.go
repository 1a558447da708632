package merge

import "errors"

var (
	errNoStateHandler = errors.New("no state handler")
	errUnknownTarget  = errors.New("reaction target not present")
)
