package devup

import "context"

// Pipeline brings up the local deployment.
//
// A Pipeline runs at most once. The steps execute strictly in order:
//
//	unlock → reap → bootstrap → bridge-environment → build → deploy → health-poll → tunnel
//
// There is no skipping, reordering or resuming. A fresh run is a fresh
// Pipeline.
type Pipeline interface {
	// Run executes every step and then holds the access tunnel open in the
	// foreground until ctx is cancelled or the tunnel exits.
	//
	// Returns nil when the tunnel ends because ctx was cancelled.
	// Returns an error wrapping ErrCommandFailed when a fail-fast command
	// exits non-zero; the failure has already been reported to the output.
	// Returns an error wrapping ErrInterrupted when ctx is cancelled before
	// the tunnel step.
	// Returns ErrAlreadyStarted on a second call.
	Run(ctx context.Context) error

	// Steps returns the step names in execution order.
	Steps() []string
}
