package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyContent is returned when there is no source text to generate from.
	ErrEmptyContent = errors.New("source content cannot be empty")
)
