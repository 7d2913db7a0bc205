package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/giantswarm/devup/internal/config"
	"github.com/giantswarm/devup/internal/envbridge"
	"github.com/giantswarm/devup/internal/fileutil"
	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
	"github.com/giantswarm/devup/internal/sentinel"
)

// ErrInterrupted is returned when the run is cancelled before the tunnel
// step takes over.
const ErrInterrupted = sentinel.Error("interrupted")

// ErrAlreadyStarted is returned by a second call to Run.
const ErrAlreadyStarted = sentinel.Error("pipeline already started")

// Re-exported so the public API imports only from core.
const (
	ErrCommandFailed  = process.ErrCommandFailed
	ErrInvalidConfig  = config.ErrInvalidConfig
	ErrConfigNotFound = config.ErrConfigNotFound
)

// Orchestrator runs the fixed bring-up sequence once.
//
// The steps run strictly in order on the caller's goroutine. The current
// process environment is owned here: it starts as a snapshot of the host
// environment, the bridge step replaces it with the merged overlay, and
// every later step receives that value.
type Orchestrator struct {
	cfg   PipelineConfig
	comps Components
	out   io.Writer
	steps []step

	started atomic.Bool

	// Written and read only from the Run goroutine.
	env         process.Env
	services    []string
	clusterAddr string
}

// NewOrchestrator returns an Orchestrator for cfg. It panics if cfg is
// invalid or a component is missing, since both are programmer errors.
// A zero env means a snapshot of the host environment. A nil out means
// os.Stdout.
func NewOrchestrator(cfg PipelineConfig, comps Components, env process.Env, out io.Writer) *Orchestrator {
	if err := cfg.Validate(); err != nil {
		panic("devup: invalid pipeline config: " + err.Error())
	}
	if err := comps.validate(); err != nil {
		panic("devup: " + err.Error())
	}
	if env.IsZero() {
		env = process.EnvFromOS()
	}
	if out == nil {
		out = os.Stdout
	}

	o := &Orchestrator{cfg: cfg, comps: comps, out: out, env: env}
	o.steps = []step{
		{name: StepUnlock, policy: process.BestEffort, run: o.unlock},
		{name: StepReap, title: "Step 0: Cleaning Up Old Resources", policy: process.BestEffort, run: o.reap},
		{name: StepBootstrap, title: "Step 1: Checking Infrastructure", policy: process.FailFast, run: o.bootstrap},
		{name: StepBridge, title: "Step 2: Configuring Docker Environment", policy: process.BestEffort, run: o.bridge},
		{name: StepBuild, title: "Step 4: Building Service Images", policy: process.FailFast, run: o.build},
		{name: StepDeploy, title: "Step 5: Deploying via Terraform", policy: process.FailFast, run: o.deploy},
		{name: StepHealth, title: "Step 6: Health Check", policy: process.FailFast, run: o.poll},
		{name: StepTunnel, title: "Step 8: Opening Access Tunnel", policy: process.FailFast, run: o.tunnel},
	}
	return o
}

func (c Components) validate() error {
	var errs []error
	check := func(name string, missing bool) {
		if missing {
			errs = append(errs, fmt.Errorf("%s component must not be nil", name))
		}
	}
	check("unlocker", c.Unlocker == nil)
	check("reaper", c.Reaper == nil)
	check("bootstrapper", c.Bootstrapper == nil)
	check("bridge", c.Bridge == nil)
	check("builder", c.Builder == nil)
	check("applier", c.Applier == nil)
	check("poller", c.Poller == nil)
	check("tunnel", c.Tunnel == nil)
	return errors.Join(errs...)
}

// Steps returns the step names in execution order.
func (o *Orchestrator) Steps() []string {
	names := make([]string, len(o.steps))
	for i, s := range o.steps {
		names[i] = s.name
	}
	return names
}

// Run executes every step in order. Best-effort steps never stop the run.
// The first fail-fast error is returned wrapped with its step name. A
// cancellation before the tunnel step returns ErrInterrupted; inside the
// tunnel step it ends the run normally.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	log := Logger()

	services, err := o.discover()
	if err != nil {
		return err
	}
	o.services = services
	log.Debug("services discovered", "count", len(services), "services", services)

	runStart := time.Now()
	for _, s := range o.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w before %s: %w", ErrInterrupted, s.name, err)
		}

		if s.title != "" {
			notify.Headerf(o.out, "%s", s.title)
		}

		start := time.Now()
		err := s.run(ctx)
		log.Debug("step finished", "step", s.name, "policy", s.policy.String(), "duration", time.Since(start))
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return fmt.Errorf("%w during %s: %w", ErrInterrupted, s.name, err)
		}
		if s.policy == process.BestEffort {
			if errors.Is(err, envbridge.ErrDegraded) {
				log.Error("continuing after degraded step", "step", s.name, "error", err)
				continue
			}
			log.Warn("continuing after best-effort step failed", "step", s.name, "error", err)
			continue
		}
		return fmt.Errorf("%s: %w", s.name, err)
	}

	log.Debug("pipeline finished", "duration", time.Since(runStart))
	return nil
}

func (o *Orchestrator) discover() ([]string, error) {
	if o.cfg.Services != nil {
		return o.cfg.Services, nil
	}
	services, err := fileutil.DiscoverServices(o.cfg.Root, o.cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}
	return services, nil
}

func (o *Orchestrator) unlock(context.Context) error {
	return o.comps.Unlocker.Unlock()
}

func (o *Orchestrator) reap(ctx context.Context) error {
	return o.comps.Reaper.Reap(ctx)
}

func (o *Orchestrator) bootstrap(ctx context.Context) error {
	addr, err := o.comps.Bootstrapper.Ensure(ctx, o.env)
	if err != nil {
		return err
	}
	o.clusterAddr = addr
	Logger().Debug("cluster ready", "address", addr)
	return nil
}

func (o *Orchestrator) bridge(ctx context.Context) error {
	overlay, err := o.comps.Bridge.Overlay(ctx, o.env)
	if err != nil {
		return err
	}
	o.env = o.env.With(overlay)
	Logger().Debug("environment bridged", "keys", len(overlay))
	return nil
}

func (o *Orchestrator) build(ctx context.Context) error {
	return o.comps.Builder.Build(ctx, o.services, o.env)
}

func (o *Orchestrator) deploy(ctx context.Context) error {
	return o.comps.Applier.Apply(ctx, o.env)
}

func (o *Orchestrator) poll(ctx context.Context) error {
	res, err := o.comps.Poller.Wait(ctx, o.env)
	if err != nil {
		return err
	}
	Logger().Debug("health poll finished", "attempts", res.Attempts, "converged", res.Converged)
	return nil
}

func (o *Orchestrator) tunnel(ctx context.Context) error {
	return o.comps.Tunnel.Open(ctx, o.env)
}
