package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/giantswarm/devup/internal/config"
)

// PipelineConfig holds everything the orchestrator needs to build its steps.
//
// All fields are immutable after construction via NewOrchestrator. Steps
// read them without synchronization.
type PipelineConfig struct {
	// Root is the project root. Relative paths below resolve against it.
	Root string

	// Ingress is the loaded tunnel target.
	Ingress config.Ingress

	// Services overrides discovery when non-nil. Nil means the top-level
	// directories of Root that contain ManifestFile.
	Services []string

	// ManifestFile marks a directory as a buildable service.
	ManifestFile string

	// TerraformDir is where terraform runs and where the lock file lives,
	// relative to Root.
	TerraformDir string

	// LockFile is the terraform lock-info file name inside TerraformDir.
	LockFile string

	// SettleDelay is the pause after deleting prior resources.
	SettleDelay time.Duration

	// PollInterval and PollAttempts bound the health check. The check never
	// sleeps after the last attempt.
	PollInterval time.Duration
	PollAttempts int

	// CriticalWorkloads must all appear in the pod listing before the
	// deployment counts as healthy.
	CriticalWorkloads []string

	// Clock drives the settle delay and the poll interval.
	Clock clock.Clock
}

// TerraformPath returns the absolute terraform working directory.
func (c PipelineConfig) TerraformPath() string {
	return filepath.Join(c.Root, c.TerraformDir)
}

// LockPath returns the absolute lock-info file path.
func (c PipelineConfig) LockPath() string {
	return filepath.Join(c.TerraformPath(), c.LockFile)
}

// Validate checks all PipelineConfig invariants and reports every violation
// found, joined with errors.Join.
//
// Validate is called by NewOrchestrator, which panics on error since an
// invalid config is a programmer error.
func (c PipelineConfig) Validate() error {
	var errs []error

	if c.Root == "" {
		errs = append(errs, errors.New("project root must not be empty"))
	}
	if c.ManifestFile == "" {
		errs = append(errs, errors.New("manifest file name must not be empty"))
	}
	if c.TerraformDir == "" {
		errs = append(errs, errors.New("terraform directory must not be empty"))
	}
	if c.LockFile == "" {
		errs = append(errs, errors.New("lock file name must not be empty"))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be greater than 0, got %s", c.PollInterval))
	}
	if c.PollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("poll attempts must be greater than 0, got %d", c.PollAttempts))
	}
	for _, w := range c.CriticalWorkloads {
		if strings.TrimSpace(w) == "" {
			errs = append(errs, errors.New("critical workload names must not be empty"))
			break
		}
	}
	for _, s := range c.Services {
		if s == "" || strings.ContainsAny(s, `/\`) {
			errs = append(errs, fmt.Errorf("service %q must be a top-level directory name", s))
		}
	}
	if c.Clock == nil {
		errs = append(errs, errors.New("clock must not be nil"))
	}
	if err := c.Ingress.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
