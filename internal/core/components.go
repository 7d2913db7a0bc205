package core

import (
	"io"

	"github.com/giantswarm/devup/internal/cluster"
	"github.com/giantswarm/devup/internal/deploy"
	"github.com/giantswarm/devup/internal/envbridge"
	"github.com/giantswarm/devup/internal/health"
	"github.com/giantswarm/devup/internal/images"
	"github.com/giantswarm/devup/internal/lockguard"
	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
	"github.com/giantswarm/devup/internal/reaper"
	"github.com/giantswarm/devup/internal/tunnel"
)

// Backends are the external seams the default components run against.
// Nil fields take the production implementation.
type Backends struct {
	Runner    process.Runner
	NewClient reaper.ClientFactory
	NewEngine envbridge.EngineFactory
	PortInUse func(port int) bool
}

// NewComponents wires the production collaborators for cfg. User-facing
// lines and streamed command output go to out, serialized through one
// notify.SyncWriter. The components keep the logger current at this call.
func NewComponents(cfg PipelineConfig, b Backends, out io.Writer) Components {
	out = notify.Synchronized(out)
	log := Logger()
	runner := b.Runner
	if runner == nil {
		runner = process.NewExecRunner(log, out, nil)
	}

	rp := reaper.New(reaper.Config{
		Namespace:   cfg.Ingress.Namespace,
		SettleDelay: cfg.SettleDelay,
		Clock:       cfg.Clock,
		NewClient:   b.NewClient,
	}, out, log)

	bridge := envbridge.New(envbridge.Config{
		Root:      cfg.Root,
		NewEngine: b.NewEngine,
	}, runner, out, log)

	poller := health.New(health.Config{
		Root:     cfg.Root,
		Attempts: cfg.PollAttempts,
		Interval: cfg.PollInterval,
		Critical: cfg.CriticalWorkloads,
		Clock:    cfg.Clock,
	}, runner, out, log)

	tun := tunnel.New(tunnel.Config{
		Namespace:     cfg.Ingress.Namespace,
		Service:       cfg.Ingress.ServiceName,
		LocalPort:     cfg.Ingress.LocalPort,
		ContainerPort: cfg.Ingress.ContainerPort,
		Root:          cfg.Root,
		PortInUse:     b.PortInUse,
	}, runner, out, log)

	return Components{
		Unlocker:     lockguard.New(cfg.LockPath(), out, log),
		Reaper:       rp,
		Bootstrapper: cluster.New(runner, cfg.Root, out, log),
		Bridge:       bridge,
		Builder:      images.New(runner, cfg.Root, out, log),
		Applier:      deploy.New(runner, cfg.TerraformPath(), out, log),
		Poller:       poller,
		Tunnel:       tun,
	}
}
