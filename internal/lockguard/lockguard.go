// Package lockguard clears a stale terraform state lock left behind by an
// interrupted run.
//
// The guard never waits for or negotiates with a lock holder. It removes the
// lock-info file opportunistically and lets the run continue either way.
package lockguard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/giantswarm/devup/internal/notify"
)

// LockFileName is the file terraform's local backend writes next to the
// state while an operation holds the lock.
const LockFileName = ".terraform.tfstate.lock.info"

// Info is the subset of terraform's lock-info document worth reporting.
type Info struct {
	ID        string    `json:"ID"`
	Operation string    `json:"Operation"`
	Who       string    `json:"Who"`
	Version   string    `json:"Version"`
	Created   time.Time `json:"Created"`
	Path      string    `json:"Path"`
}

// ReadInfo parses the lock-info file at path.
func ReadInfo(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read lock info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("parse lock info %s: %w", path, err)
	}
	return info, nil
}

// Guard removes the lock-info file at a fixed path.
type Guard struct {
	path string
	out  io.Writer
	log  *slog.Logger
}

// New returns a Guard for the lock file at path. User-facing lines go to out.
// A nil logger defaults to slog.Default().
func New(path string, out io.Writer, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{path: path, out: out, log: logger}
}

// Path returns the lock-file path the guard watches.
func (g *Guard) Path() string {
	return g.path
}

// Unlock removes the lock file if it exists. A missing file is success.
// A removal failure is reported to the user and returned; callers treat it
// as non-fatal.
func (g *Guard) Unlock() error {
	if _, err := os.Lstat(g.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			g.log.Debug("no terraform lock file", "path", g.path)
			return nil
		}
		notify.Errorf(g.out, "Could not inspect lock file: %v", err)
		return fmt.Errorf("stat lock file: %w", err)
	}

	notify.Warningf(g.out, "Found Terraform Lock File: %s", g.path)
	if info, err := ReadInfo(g.path); err == nil {
		g.log.Info("stale terraform lock",
			"id", info.ID,
			"operation", info.Operation,
			"who", info.Who,
			"created", info.Created,
		)
	} else {
		g.log.Debug("lock file is not terraform lock info", "path", g.path, "error", err)
	}

	if err := os.Remove(g.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		notify.Errorf(g.out, "Could not remove lock file: %v", err)
		return fmt.Errorf("remove lock file: %w", err)
	}

	notify.Successf(g.out, "Removed Lock File. Terraform is now unlocked.")
	return nil
}
