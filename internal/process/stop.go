package process

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// DefaultStopTimeout bounds how long an interrupted command may take to exit
// before Run gives up on it.
const DefaultStopTimeout = 10 * time.Second

const (
	// termGracePeriod is how long SIGTERM gets before SIGKILL.
	termGracePeriod = 5 * time.Second
	// killDrainTimeout bounds the wait for cmd.Wait after SIGKILL.
	killDrainTimeout = 10 * time.Second
)

// drainDone waits up to timeout for the cmd.Wait result. It reports false on
// timeout.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// stopWithDone sends SIGTERM to an interrupted command, then SIGKILL once the
// grace period is over. done carries the command's single cmd.Wait result.
func stopWithDone(cmd *exec.Cmd, done <-chan error, timeout time.Duration, name string) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if done == nil {
		return fmt.Errorf("%s: done channel must not be nil", name)
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already exited.
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out draining process after signal failure", name)
		}
		return expectSignalExit(waitErr, name)
	}

	grace := min(termGracePeriod, timeout)
	killTimer := time.AfterFunc(grace, func() {
		_ = cmd.Process.Kill()
	})
	defer killTimer.Stop()

	totalTimer := time.NewTimer(timeout)
	defer totalTimer.Stop()

	select {
	case err := <-done:
		return expectSignalExit(err, name)
	case <-totalTimer.C:
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out waiting for process to exit after SIGKILL", name)
		}
		if err := expectSignalExit(waitErr, name); err != nil {
			return fmt.Errorf("%s stop timeout: %w", name, err)
		}
		return nil
	}
}

// expectSignalExit maps the cmd.Wait error of a stopped command to nil when
// the command died of SIGINT, SIGTERM or SIGKILL, or exited on its own.
func expectSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			switch status.Signal() {
			case syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL:
				return nil
			}
		}
		// kubectl and minikube trap SIGTERM and exit with a status instead.
		if exitErr.Exited() {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
