package devup

import (
	"time"

	"github.com/giantswarm/devup/internal/config"
	"github.com/giantswarm/devup/internal/fileutil"
	"github.com/giantswarm/devup/internal/health"
	"github.com/giantswarm/devup/internal/lockguard"
)

// Default configuration values for NewPipeline.
// These constants are exported so callers can reference the defaults
// when building custom configurations relative to them.
const (
	// DefaultSettleDelay is how long the reap step waits after issuing
	// deletions before the cluster is touched again.
	DefaultSettleDelay = 5 * time.Second

	// DefaultPollInterval is the pause between pod snapshots.
	DefaultPollInterval = health.DefaultInterval

	// DefaultPollAttempts is the number of pod snapshots taken before the
	// health check gives up and the run continues anyway.
	DefaultPollAttempts = health.DefaultAttempts

	// DefaultManifestFile marks a top-level directory as a buildable service.
	DefaultManifestFile = fileutil.DefaultManifest

	// DefaultLockFile is the terraform lock-info file removed by the unlock
	// step.
	DefaultLockFile = lockguard.LockFileName

	// DefaultConfigFile is the configuration path relative to the project
	// root.
	DefaultConfigFile = config.DefaultFile

	// DefaultTerraformDir is the terraform working directory relative to
	// the project root. The lock file lives here too.
	DefaultTerraformDir = "terraform/local"
)

// DefaultCriticalWorkloads returns the workload names that must appear in
// the pod listing before the deployment counts as healthy.
func DefaultCriticalWorkloads() []string {
	return append([]string(nil), health.DefaultCritical...)
}
