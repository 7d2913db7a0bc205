// Package health polls the cluster until the deployed workloads look
// settled or a fixed attempt ceiling is reached.
//
// Convergence is judged on the text of `kubectl get pods`, not on API
// conditions: the snapshot must show a running pod, none of the failure
// markers and every critical workload name.
package health

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/giantswarm/devup/internal/clockutil"
	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
	"github.com/giantswarm/devup/internal/sentinel"
)

// ErrConvergenceTimeout describes a poll that hit its ceiling. It is logged,
// never returned: the pipeline proceeds to the tunnel regardless.
const ErrConvergenceTimeout = sentinel.Error("timed out waiting for pods")

const (
	// DefaultAttempts is the poll ceiling.
	DefaultAttempts = 40
	// DefaultInterval is the pause between snapshots.
	DefaultInterval = 3 * time.Second
	// progressEvery is how many failed attempts pass between progress lines.
	progressEvery = 5
)

// DefaultCritical lists the workloads that must appear in a healthy snapshot.
var DefaultCritical = []string{"backend", "ui"}

const runningMarker = "Running"

var failureMarkers = []string{"Error", "CrashLoop", "ContainerCreating"}

// Healthy reports whether snapshot shows a settled deployment: it contains
// "Running", none of the failure markers and every name in critical.
func Healthy(snapshot string, critical []string) bool {
	if !strings.Contains(snapshot, runningMarker) {
		return false
	}
	for _, m := range failureMarkers {
		if strings.Contains(snapshot, m) {
			return false
		}
	}
	for _, name := range critical {
		if !strings.Contains(snapshot, name) {
			return false
		}
	}
	return true
}

// Config configures a Poller. Zero values take the defaults.
type Config struct {
	Root     string
	Attempts int
	Interval time.Duration
	// Critical overrides DefaultCritical when non-nil.
	Critical []string
	Clock    clock.Clock
}

// Result reports how a poll ended.
type Result struct {
	Attempts  int
	Converged bool
}

// Err returns ErrConvergenceTimeout for a poll that did not converge.
func (r Result) Err() error {
	if r.Converged {
		return nil
	}
	return ErrConvergenceTimeout
}

// Poller takes pod snapshots until Healthy or the ceiling.
type Poller struct {
	cfg    Config
	runner process.Runner
	out    io.Writer
	log    *slog.Logger
}

// New returns a Poller. A nil logger defaults to slog.Default().
func New(cfg Config, runner process.Runner, out io.Writer, logger *slog.Logger) *Poller {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Critical == nil {
		cfg.Critical = DefaultCritical
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{cfg: cfg, runner: runner, out: out, log: logger}
}

// Snapshot returns the current `kubectl get pods` output.
func (p *Poller) Snapshot(ctx context.Context, env process.Env) (string, error) {
	res, err := p.runner.Run(ctx, process.Command{
		Name:    "kubectl",
		Args:    []string{"get", "pods"},
		Dir:     p.cfg.Root,
		Env:     env,
		Capture: true,
		Policy:  process.FailFast,
	})
	return res.Stdout, err
}

// Wait polls until the snapshot is Healthy or the attempt ceiling is hit.
// Hitting the ceiling is reported as a warning and returns a Result with
// Converged false and a nil error. Errors come only from a failing snapshot
// command or an interrupt.
func (p *Poller) Wait(ctx context.Context, env process.Env) (Result, error) {
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		snapshot, err := p.Snapshot(ctx, env)
		if err != nil {
			return Result{Attempts: attempt}, err
		}
		if Healthy(snapshot, p.cfg.Critical) {
			notify.Successf(p.out, "All Pods are RUNNING!")
			return Result{Attempts: attempt, Converged: true}, nil
		}

		if attempt%progressEvery == 0 {
			p.log.Debug("Waiting for pods...", "attempt", attempt, "max_attempts", p.cfg.Attempts)
		}
		if attempt == p.cfg.Attempts {
			break
		}
		if err := clockutil.Sleep(ctx, p.cfg.Clock, p.cfg.Interval); err != nil {
			return Result{Attempts: attempt}, err
		}
	}

	notify.Warningf(p.out, "Timed out waiting for pods.")
	res := Result{Attempts: p.cfg.Attempts}
	p.log.Warn("continuing without healthy pods", "attempts", res.Attempts, "error", res.Err())
	return res, nil
}
