package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/giantswarm/devup/internal/notify"
)

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

var _ Runner = (*ExecRunner)(nil)

// ExecRunner runs commands as child processes via os/exec.
//
// ExecRunner holds no per-run state and is safe for concurrent use, which
// the tunnel step relies on.
type ExecRunner struct {
	stdout      io.Writer
	stderr      io.Writer
	log         *slog.Logger
	stopTimeout time.Duration
}

// NewExecRunner returns a runner that streams uncaptured output to stdout and
// stderr. Failure lines go to stdout alongside the rest of the user-facing
// output. Nil writers default to os.Stdout and os.Stderr; a nil logger
// defaults to slog.Default().
func NewExecRunner(logger *slog.Logger, stdout, stderr io.Writer) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &ExecRunner{
		stdout:      stdout,
		stderr:      stderr,
		log:         logger,
		stopTimeout: DefaultStopTimeout,
	}
}

// Run executes c and applies its Policy to a non-zero exit. A start failure
// (for example a missing binary) counts as a non-zero exit. If ctx is
// cancelled while the command runs, the child is stopped and Run returns an
// error wrapping ctx.Err() regardless of policy; nothing is reported to the
// user in that case.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	if c.Name == "" {
		return Result{}, ErrEmptyCommand
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", c, err)
	}

	line := c.String()
	r.log.Debug("Exec: "+line, "dir", c.Dir, "policy", c.Policy.String(), "capture", c.Capture)

	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	if !c.Env.IsZero() {
		cmd.Env = c.Env.Environ()
	}
	configureSysProcAttr(cmd)

	var stdout, stderr bytes.Buffer
	if c.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
	}

	runErr := r.execute(ctx, cmd, line)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, fmt.Errorf("%s: %w", line, ctxErr)
	}

	if runErr == nil {
		return Result{Stdout: strings.TrimSpace(stdout.String())}, nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	if c.Policy == BestEffort {
		r.log.Debug("ignoring command failure", "command", line, "exit_code", exitCode, "error", runErr)
		return Result{}, nil
	}

	captured := strings.TrimSpace(stderr.String())
	notify.Errorf(r.stdout, "Command failed: %s", line)
	notify.Raw(r.stdout, captured)

	return Result{}, &CommandError{
		Command:  line,
		ExitCode: exitCode,
		Stderr:   captured,
		Err:      runErr,
	}
}

// execute starts cmd and waits for it, stopping it if ctx is cancelled first.
func (r *ExecRunner) execute(ctx context.Context, cmd *exec.Cmd, name string) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if err := stopWithDone(cmd, done, r.stopTimeout, name); err != nil {
			r.log.Debug("stop interrupted command", "command", name, "error", err)
		}
		return ctx.Err()
	}
}
