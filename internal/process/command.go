package process

import (
	"fmt"
	"strings"

	"github.com/giantswarm/devup/internal/sentinel"
)

// ErrCommandFailed is matched by every *CommandError.
const ErrCommandFailed = sentinel.Error("command failed")

// ErrEmptyCommand is returned when a Command has no program name.
const ErrEmptyCommand = sentinel.Error("command name must not be empty")

// Policy decides what a non-zero exit means to the caller.
type Policy int

const (
	// FailFast reports the failure and returns a *CommandError.
	FailFast Policy = iota
	// BestEffort swallows the failure and returns an empty Result.
	BestEffort
)

// String returns the policy name used in log attributes.
func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Command describes one invocation of an external program.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is the complete child environment. A zero Env inherits the host's.
	Env Env
	// Capture buffers stdout and stderr instead of streaming them.
	Capture bool
	Policy  Policy
}

// String renders the command line as it would be typed in a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a successful (or swallowed) command.
type Result struct {
	// Stdout is the trimmed standard output. Empty for streamed commands.
	Stdout string
	// ExitCode is zero for successes and for swallowed best-effort failures.
	ExitCode int
}

// CommandError is returned for a failed fail-fast command. The failure has
// already been reported to the user by the time it is returned.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command %q failed (exit %d): %v", e.Command, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("command %q failed (exit %d)", e.Command, e.ExitCode)
}

// Unwrap exposes the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is reports ErrCommandFailed as a match so callers need not type-assert.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}
