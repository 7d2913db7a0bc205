// Package tunnel opens the foreground port-forward to the ingress service
// and keeps it open until the user interrupts the run.
package tunnel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/devup/internal/netutil"
	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
)

const (
	defaultProbeInterval = 250 * time.Millisecond
	defaultProbeTimeout  = 30 * time.Second
)

// Config describes the forward.
type Config struct {
	Namespace     string
	Service       string
	LocalPort     int
	ContainerPort int
	Root          string
	// ProbeInterval and ProbeTimeout tune the readiness probe. Zero values
	// take the defaults.
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
	// PortInUse overrides netutil.PortInUse in tests.
	PortInUse func(port int) bool
}

// Opener runs kubectl port-forward in the foreground.
type Opener struct {
	cfg    Config
	runner process.Runner
	out    io.Writer
	log    *slog.Logger
}

// New returns an Opener. A nil logger defaults to slog.Default().
func New(cfg Config, runner process.Runner, out io.Writer, logger *slog.Logger) *Opener {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = defaultProbeInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.PortInUse == nil {
		cfg.PortInUse = netutil.PortInUse
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{cfg: cfg, runner: runner, out: out, log: logger}
}

// URL is the address the user opens in a browser.
func (o *Opener) URL() string {
	return "http://" + netutil.LocalAddr(o.cfg.LocalPort)
}

// Command returns the port-forward invocation.
func (o *Opener) Command(env process.Env) process.Command {
	return process.Command{
		Name: "kubectl",
		Args: []string{
			"port-forward",
			"-n", o.cfg.Namespace,
			"svc/" + o.cfg.Service,
			strconv.Itoa(o.cfg.LocalPort) + ":" + strconv.Itoa(o.cfg.ContainerPort),
		},
		Dir:    o.cfg.Root,
		Env:    env,
		Policy: process.FailFast,
	}
}

// Open runs the port-forward until it exits or ctx is cancelled. A
// cancellation is the normal way to end a run and returns nil. A
// port-forward failure is returned.
func (o *Opener) Open(ctx context.Context, env process.Env) error {
	notify.Infof(o.out, "Starting port-forwarding to Ingress (%s)", o.cfg.Service)
	notify.Infof(o.out, "Mapping: localhost:%d -> Container:%d", o.cfg.LocalPort, o.cfg.ContainerPort)
	notify.Infof(o.out, "Access URL: %s", o.URL())
	notify.Infof(o.out, "Press Ctrl+C to stop.")

	if o.cfg.PortInUse(o.cfg.LocalPort) {
		notify.Warningf(o.out, "Port %d is already in use on this machine; the port-forward may fail.", o.cfg.LocalPort)
	}

	g, gctx := errgroup.WithContext(ctx)
	probeCtx, stopProbe := context.WithCancel(gctx)
	defer stopProbe()

	g.Go(func() error {
		defer stopProbe()
		if _, err := o.runner.Run(gctx, o.Command(env)); err != nil {
			return fmt.Errorf("port-forward: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		addr := netutil.LocalAddr(o.cfg.LocalPort)
		err := netutil.WaitListening(probeCtx, addr, o.cfg.ProbeInterval, o.cfg.ProbeTimeout, o.log)
		switch {
		case err == nil:
			notify.Successf(o.out, "Tunnel ready at %s", o.URL())
		case probeCtx.Err() == nil:
			o.log.Warn("tunnel not accepting connections yet", "addr", addr, "error", err)
		}
		// The probe only reports.
		return nil
	})

	err := g.Wait()
	if ctx.Err() != nil {
		notify.Infof(o.out, "Goodbye!")
		return nil
	}
	return err
}
