package devup

import (
	"context"
	"os"

	"k8s.io/utils/clock"

	"github.com/giantswarm/devup/internal/core"
	"github.com/giantswarm/devup/internal/notify"
)

// Compile-time interface satisfaction check.
var _ Pipeline = (*pipelineWrapper)(nil)

// pipelineWrapper wraps core.Orchestrator to implement the Pipeline
// interface. The orchestrator is a named field rather than embedded so
// callers cannot type-assert their way to internal methods.
type pipelineWrapper struct {
	orch *core.Orchestrator
}

// Run wraps core.Orchestrator.Run.
func (w *pipelineWrapper) Run(ctx context.Context) error {
	return w.orch.Run(ctx)
}

// Steps wraps core.Orchestrator.Steps.
func (w *pipelineWrapper) Steps() []string {
	return w.orch.Steps()
}

// defaultPipelineConfig returns a pipelineConfig populated with all default
// values for cfg. Both NewPipeline and test helpers use it.
func defaultPipelineConfig(cfg Config) pipelineConfig {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return pipelineConfig{
		PipelineConfig: core.PipelineConfig{
			Root:              root,
			Ingress:           cfg.Ingress,
			ManifestFile:      DefaultManifestFile,
			TerraformDir:      DefaultTerraformDir,
			LockFile:          DefaultLockFile,
			SettleDelay:       DefaultSettleDelay,
			PollInterval:      DefaultPollInterval,
			PollAttempts:      DefaultPollAttempts,
			CriticalWorkloads: DefaultCriticalWorkloads(),
			Clock:             clock.RealClock{},
		},
		out: os.Stdout,
	}
}

// NewPipeline returns a Pipeline for the loaded configuration cfg. It
// performs no I/O; service discovery happens when Run starts.
//
// Panics if any option receives an invalid value or if cfg's ingress
// settings are invalid. Configuration loaded with LoadConfig is always
// valid.
//
//nolint:ireturn // Pipeline is the public, mockable surface.
func NewPipeline(cfg Config, opts ...Option) Pipeline {
	pc := defaultPipelineConfig(cfg)
	for _, opt := range opts {
		opt(&pc)
	}

	coreCfg := pc.toCoreConfig()
	out := notify.Synchronized(pc.out)
	comps := core.NewComponents(coreCfg, pc.backends, out)
	return &pipelineWrapper{orch: core.NewOrchestrator(coreCfg, comps, pc.env, out)}
}
