package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates no OpenAI API key was provided.
	ErrAPIKeyMissing = errors.New("OpenAI API key not set")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")
)
