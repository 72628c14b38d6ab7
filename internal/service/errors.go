package service

import (
	"errors"
)

var (
	// ErrValidationFailed covers empty content, missing or ambiguous chat
	// targets and self-addressed messages. Not retryable.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNotAuthorized is returned when the sender is not a member of the
	// target circle.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound is returned for unknown users, circles or messages.
	ErrNotFound = errors.New("not found")
)
