// Package cluster makes sure the local minikube cluster is running before
// anything is built or deployed against it.
package cluster

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
)

// PlaceholderIP stands in for the cluster address when it cannot be read.
const PlaceholderIP = "<minikube-ip>"

// runningMarker is what `minikube status` prints for a healthy host.
const runningMarker = "Running"

// Bootstrapper checks and, if needed, starts minikube.
type Bootstrapper struct {
	runner process.Runner
	root   string
	out    io.Writer
	log    *slog.Logger
}

// New returns a Bootstrapper that runs minikube in root.
func New(runner process.Runner, root string, out io.Writer, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrapper{runner: runner, root: root, out: out, log: logger}
}

// IsRunning classifies `minikube status` output.
func IsRunning(status string) bool {
	return strings.Contains(status, runningMarker)
}

// Ensure starts minikube unless it already runs, then returns the cluster
// address. Every minikube command runs under env. A failing start is
// returned; a failing address lookup is not and yields PlaceholderIP.
func (b *Bootstrapper) Ensure(ctx context.Context, env process.Env) (string, error) {
	status, err := b.minikube(ctx, env, process.BestEffort, true, "status")
	if err != nil {
		return "", err
	}

	if IsRunning(status.Stdout) {
		notify.Successf(b.out, "Minikube is running.")
	} else {
		notify.Warningf(b.out, "Starting Minikube...")
		if _, err := b.minikube(ctx, env, process.FailFast, false, "start"); err != nil {
			return "", err
		}
	}

	ip, err := b.minikube(ctx, env, process.BestEffort, true, "ip")
	if err != nil {
		return "", err
	}
	addr := ip.Stdout
	if addr == "" {
		b.log.Debug("minikube ip unavailable, using placeholder")
		addr = PlaceholderIP
	}
	notify.Infof(b.out, "Minikube IP: %s", addr)
	return addr, nil
}

func (b *Bootstrapper) minikube(ctx context.Context, env process.Env, policy process.Policy, capture bool, args ...string) (process.Result, error) {
	return b.runner.Run(ctx, process.Command{
		Name:    "minikube",
		Args:    args,
		Dir:     b.root,
		Env:     env,
		Capture: capture,
		Policy:  policy,
	})
}
