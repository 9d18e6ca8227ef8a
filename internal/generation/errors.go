package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when the generation call fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate output from prompt")

	// ErrEmptyResponse is returned when the service answers but produces no usable text
	ErrEmptyResponse = errors.New("no response generated")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
