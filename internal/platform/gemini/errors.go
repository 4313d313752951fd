package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrInvalidConfig is returned when the client is constructed without the
	// settings it needs.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyImage is returned when an OCR request carries no image bytes.
	ErrEmptyImage = errors.New("image cannot be empty")

	// ErrNoAudio is returned when a TTS response contains no audio part.
	ErrNoAudio = errors.New("response contained no audio")

	// ErrInvalidResponse is returned when the API answers with no usable candidate.
	ErrInvalidResponse = errors.New("invalid response from gemini")

	// ErrContentBlocked is returned when the safety filters stopped generation.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrTransientFailure is returned when every retry of a transient error failed.
	ErrTransientFailure = errors.New("gemini temporarily unavailable")
)
