package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmptyInput marks blank text handed to the embedding gateway.
	// The gateway returns it before making any remote call.
	ErrEmptyInput = errors.New("empty input")
	// ErrRetrievalUnavailable marks a vector search failure. Callers degrade
	// to empty retrieval context rather than failing the item.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
)
