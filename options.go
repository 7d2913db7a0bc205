package devup

import (
	"fmt"
	"io"
	"strings"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/clock"

	"github.com/giantswarm/devup/internal/process"
)

// Runner executes the external commands behind each step. The default runs
// them as child processes.
type Runner = process.Runner

// Command and Result are the Runner's input and output.
type (
	Command = process.Command
	Result  = process.Result
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("devup: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("devup: %s must not be empty", name))
	}
}

// requireNonNil panics if isNil is true.
func requireNonNil(name string, isNil bool) {
	if isNil {
		panic(fmt.Sprintf("devup: %s must not be nil", name))
	}
}

// Option configures a Pipeline during construction via NewPipeline.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations, nil collaborators). Option values are typically constants, so
// an invalid value is a programmer error rather than a runtime condition.
// The pattern mirrors [regexp.MustCompile].
type Option func(*pipelineConfig)

// WithProjectRoot sets the directory holding the service directories,
// driver/ and terraform/.
//
// Default: the working directory.
//
// Panics if dir is empty.
func WithProjectRoot(dir string) Option {
	requireNonEmpty("project root", dir)
	return func(c *pipelineConfig) {
		c.Root = dir
	}
}

// WithServices replaces service discovery with a fixed list of top-level
// directory names. Calling it with no names builds nothing.
//
// Default: every top-level directory containing DefaultManifestFile.
//
// Panics if a name is empty or contains a path separator.
func WithServices(names ...string) Option {
	for _, n := range names {
		if n == "" || strings.ContainsAny(n, `/\`) {
			panic(fmt.Sprintf("devup: service %q must be a top-level directory name", n))
		}
	}
	services := append([]string{}, names...)
	return func(c *pipelineConfig) {
		c.Services = services
	}
}

// WithSettleDelay sets how long the reap step waits after deleting prior
// resources. Zero skips the wait.
//
// Default: 5 seconds.
//
// Panics if d < 0.
func WithSettleDelay(d time.Duration) Option {
	if d < 0 {
		panic(fmt.Sprintf("devup: settle delay must not be negative, got %v", d))
	}
	return func(c *pipelineConfig) {
		c.SettleDelay = d
	}
}

// WithPollInterval sets the pause between pod snapshots in the health check.
//
// Default: 3 seconds.
//
// Panics if d <= 0.
func WithPollInterval(d time.Duration) Option {
	requirePositive("poll interval", d)
	return func(c *pipelineConfig) {
		c.PollInterval = d
	}
}

// WithPollAttempts sets how many pod snapshots the health check takes before
// it gives up. Giving up is a warning; the run continues to the tunnel.
//
// Default: 40.
//
// Panics if n <= 0.
func WithPollAttempts(n int) Option {
	requirePositive("poll attempts", n)
	return func(c *pipelineConfig) {
		c.PollAttempts = n
	}
}

// WithCriticalWorkloads sets the workload names that must all appear in the
// pod listing before the deployment counts as healthy.
//
// Default: DefaultCriticalWorkloads().
//
// Panics if a name is blank.
func WithCriticalWorkloads(names ...string) Option {
	for _, n := range names {
		requireNonEmpty("critical workload name", strings.TrimSpace(n))
	}
	workloads := append([]string{}, names...)
	return func(c *pipelineConfig) {
		c.CriticalWorkloads = workloads
	}
}

// WithClock sets the clock behind the settle delay and the poll interval.
// Tests pass a fake clock to run both without waiting.
//
// Default: the real clock.
//
// Panics if clk is nil.
func WithClock(clk clock.Clock) Option {
	requireNonNil("clock", clk == nil)
	return func(c *pipelineConfig) {
		c.Clock = clk
	}
}

// WithTerraformDir sets the terraform working directory, relative to the
// project root.
//
// Default: DefaultTerraformDir.
//
// Panics if dir is empty.
func WithTerraformDir(dir string) Option {
	requireNonEmpty("terraform directory", dir)
	return func(c *pipelineConfig) {
		c.TerraformDir = dir
	}
}

// WithManifestFile sets the file name that marks a directory as a service.
//
// Default: DefaultManifestFile.
//
// Panics if name is empty.
func WithManifestFile(name string) Option {
	requireNonEmpty("manifest file name", name)
	return func(c *pipelineConfig) {
		c.ManifestFile = name
	}
}

// WithLockFile sets the terraform lock-info file name inside the terraform
// directory.
//
// Default: DefaultLockFile.
//
// Panics if name is empty.
func WithLockFile(name string) Option {
	requireNonEmpty("lock file name", name)
	return func(c *pipelineConfig) {
		c.LockFile = name
	}
}

// WithRunner replaces the command runner behind every step that shells out.
//
// Panics if r is nil.
func WithRunner(r Runner) Option {
	requireNonNil("runner", r == nil)
	return func(c *pipelineConfig) {
		c.backends.Runner = r
	}
}

// WithKubeClient replaces the kubeconfig-derived client used by the reap
// step. namespace is the namespace whose workloads are deleted; empty means
// "default".
//
// Default: the client and namespace of the current kubeconfig context.
//
// Panics if client is nil.
func WithKubeClient(client kubernetes.Interface, namespace string) Option {
	requireNonNil("kube client", client == nil)
	return func(c *pipelineConfig) {
		c.backends.NewClient = func() (kubernetes.Interface, string, error) {
			return client, namespace, nil
		}
	}
}

// WithOutput sets where user-facing step lines and streamed command output
// go. The pipeline serializes its writes, so w need not be safe for
// concurrent use.
//
// Default: os.Stdout.
//
// Panics if w is nil.
func WithOutput(w io.Writer) Option {
	requireNonNil("output writer", w == nil)
	return func(c *pipelineConfig) {
		c.out = w
	}
}

// WithEnvironment sets the base environment, as KEY=VALUE entries, that the
// docker-env overlay is merged into.
//
// Default: the host environment at construction time.
func WithEnvironment(environ []string) Option {
	env := process.EnvFromList(environ)
	return func(c *pipelineConfig) {
		c.env = env
	}
}
