package generation

import "errors"

// Common errors returned by the generation package. The job processor
// treats every generator error as retryable: configuration and transport
// hiccups may clear, and a fresh call may produce well-formed output
// where a previous one did not.
var (
	// ErrGenerationFailed is returned when generation fails for any
	// general reason.
	ErrGenerationFailed = errors.New("failed to generate recommendations")

	// ErrInvalidResponse is returned when the LLM response cannot be
	// parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due
	// to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during recommendation generation")

	// ErrInvalidConfig is returned when the generator configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
