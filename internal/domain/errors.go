package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoJobAvailable  = errors.New("no job available")
	ErrInvalidContent  = errors.New("invalid generated content")
	ErrProviderFailure = errors.New("provider failure")
	ErrMissingPayload  = errors.New("required payload field missing")
)
