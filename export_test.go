package devup

import (
	"io"
	"time"

	"github.com/giantswarm/devup/internal/envbridge"
)

// ConfigSnapshot holds a copy of pipelineConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	Root              string
	Services          []string
	ManifestFile      string
	TerraformDir      string
	LockFile          string
	SettleDelay       time.Duration
	PollInterval      time.Duration
	PollAttempts      int
	CriticalWorkloads []string
	HasRunner         bool
	HasKubeClient     bool
	Output            io.Writer
	EnvLen            int
}

// ApplyOptionsForTesting creates a default pipelineConfig, applies the given
// options, and returns a ConfigSnapshot of the result.
func ApplyOptionsForTesting(cfg Config, opts ...Option) ConfigSnapshot {
	pc := defaultPipelineConfig(cfg)
	for _, opt := range opts {
		opt(&pc)
	}

	return ConfigSnapshot{
		Root:              pc.Root,
		Services:          pc.Services,
		ManifestFile:      pc.ManifestFile,
		TerraformDir:      pc.TerraformDir,
		LockFile:          pc.LockFile,
		SettleDelay:       pc.SettleDelay,
		PollInterval:      pc.PollInterval,
		PollAttempts:      pc.PollAttempts,
		CriticalWorkloads: pc.CriticalWorkloads,
		HasRunner:         pc.backends.Runner != nil,
		HasKubeClient:     pc.backends.NewClient != nil,
		Output:            pc.out,
		EnvLen:            pc.env.Len(),
	}
}

// WithEngineFactoryForTesting replaces the docker engine probe client.
func WithEngineFactoryForTesting(f envbridge.EngineFactory) Option {
	return func(c *pipelineConfig) {
		c.backends.NewEngine = f
	}
}

// WithPortInUseForTesting replaces the local port pre-check of the tunnel
// step.
func WithPortInUseForTesting(f func(port int) bool) Option {
	return func(c *pipelineConfig) {
		c.backends.PortInUse = f
	}
}
