package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidCardState is returned when a card's scheduling state is missing
	// or malformed (absent dates, negative interval or reference count).
	ErrInvalidCardState = errors.New("invalid card state")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
