package pipeline

import "errors"

// Validation and setup sentinel errors.
var (
	// ErrNoFile indicates no input path was provided.
	ErrNoFile = errors.New("no file selected")

	// ErrFileNotFound indicates the input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates the input extension is not allow-listed.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrToolUnavailable indicates ffmpeg is required for splitting but
	// could not be located.
	ErrToolUnavailable = errors.New("ffmpeg is not installed or could not be found")
)
