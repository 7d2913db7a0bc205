package devup

import "github.com/giantswarm/devup/internal/core"

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrInterrupted is returned by Run when the context is cancelled before
	// the tunnel step. Inside the tunnel step a cancellation ends the run
	// normally.
	ErrInterrupted = core.ErrInterrupted

	// ErrCommandFailed matches any fail-fast command that exited non-zero
	// or could not be started. The failing command line has already been
	// printed when Run returns it.
	ErrCommandFailed = core.ErrCommandFailed

	// ErrInvalidConfig is returned by LoadConfig when the configuration
	// cannot be parsed, misses a required key, or holds an out-of-range
	// value.
	ErrInvalidConfig = core.ErrInvalidConfig

	// ErrConfigNotFound is returned by LoadConfig when the configuration
	// file does not exist.
	ErrConfigNotFound = core.ErrConfigNotFound

	// ErrAlreadyStarted is returned by a second call to Pipeline.Run.
	ErrAlreadyStarted = core.ErrAlreadyStarted
)
