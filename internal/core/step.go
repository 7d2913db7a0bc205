package core

import (
	"context"

	"github.com/giantswarm/devup/internal/health"
	"github.com/giantswarm/devup/internal/process"
)

// Step names in execution order.
const (
	StepUnlock    = "unlock"
	StepReap      = "reap"
	StepBootstrap = "bootstrap"
	StepBridge    = "bridge-environment"
	StepBuild     = "build"
	StepDeploy    = "deploy"
	StepHealth    = "health-poll"
	StepTunnel    = "tunnel"
)

// Unlocker clears a stale terraform lock.
type Unlocker interface {
	Unlock() error
}

// Reaper removes resources left by a previous run.
type Reaper interface {
	Reap(ctx context.Context) error
}

// Bootstrapper ensures the cluster runtime is up and returns its address.
type Bootstrapper interface {
	Ensure(ctx context.Context, env process.Env) (string, error)
}

// Bridge produces the environment overlay that points the container CLI at
// the cluster's engine.
type Bridge interface {
	Overlay(ctx context.Context, env process.Env) (map[string]string, error)
}

// Builder builds one image per service.
type Builder interface {
	Build(ctx context.Context, services []string, env process.Env) error
}

// Applier applies the infrastructure plan.
type Applier interface {
	Apply(ctx context.Context, env process.Env) error
}

// Poller waits for workloads to converge.
type Poller interface {
	Wait(ctx context.Context, env process.Env) (health.Result, error)
}

// Tunnel runs the foreground access tunnel.
type Tunnel interface {
	Open(ctx context.Context, env process.Env) error
}

// Components are the collaborators behind the eight steps.
type Components struct {
	Unlocker     Unlocker
	Reaper       Reaper
	Bootstrapper Bootstrapper
	Bridge       Bridge
	Builder      Builder
	Applier      Applier
	Poller       Poller
	Tunnel       Tunnel
}

// step is one entry of the fixed pipeline. An empty title prints no header.
type step struct {
	name   string
	title  string
	policy process.Policy
	run    func(ctx context.Context) error
}
