package content

import "errors"

var (
	ErrNoAPIKey      = errors.New("content generator has no api key")
	ErrEmptyResponse = errors.New("empty response from content generator")
	ErrBadFormat     = errors.New("content generator returned an unexpected format")
)
