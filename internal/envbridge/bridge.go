// Package envbridge points later pipeline commands at the container engine
// running inside minikube.
//
// It asks minikube for its docker-env exports, parses the three connection
// variables out of them and hands them back as an overlay for the caller's
// process.Env. The bridge never touches the host environment.
package envbridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
	"github.com/giantswarm/devup/internal/sentinel"
)

// ErrDegraded means no engine variables could be obtained. Builds then run
// against whatever engine the unchanged environment points at.
const ErrDegraded = sentinel.Error("docker environment not configured")

// defaultProbeTimeout bounds the engine version request.
const defaultProbeTimeout = 5 * time.Second

// Config configures a Bridge.
type Config struct {
	// Root is the working directory for the export command.
	Root string
	// Shell is passed to --shell. Empty picks powershell on Windows and
	// bash elsewhere.
	Shell string
	// Parser reads the export output. Nil means ShellParser.
	Parser Parser
	// NewEngine builds the probe client. Nil means NewEngineClient.
	NewEngine EngineFactory
	// ProbeTimeout bounds the engine probe. Zero means five seconds.
	ProbeTimeout time.Duration
}

// Bridge obtains the minikube docker-env overlay.
type Bridge struct {
	cfg    Config
	runner process.Runner
	out    io.Writer
	log    *slog.Logger
}

// New returns a Bridge. A nil logger defaults to slog.Default().
func New(cfg Config, runner process.Runner, out io.Writer, logger *slog.Logger) *Bridge {
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell(runtime.GOOS)
	}
	if cfg.Parser == nil {
		cfg.Parser = ShellParser{}
	}
	if cfg.NewEngine == nil {
		cfg.NewEngine = NewEngineClient
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{cfg: cfg, runner: runner, out: out, log: logger}
}

// DefaultShell returns the docker-env shell flavour for goos.
func DefaultShell(goos string) string {
	if goos == "windows" {
		return "powershell"
	}
	return "bash"
}

// Command returns the export command the bridge runs.
func (b *Bridge) Command(env process.Env) process.Command {
	return process.Command{
		Name:    "minikube",
		Args:    []string{"-p", "minikube", "docker-env", "--shell", b.cfg.Shell},
		Dir:     b.cfg.Root,
		Env:     env,
		Capture: true,
		Policy:  process.BestEffort,
	}
}

// Overlay runs the export command under env and returns the recognized
// variables. It returns an error wrapping ErrDegraded when the command fails
// or prints none of them, and the context error when interrupted. On success
// it also probes the engine; a probe failure is only a warning.
func (b *Bridge) Overlay(ctx context.Context, env process.Env) (map[string]string, error) {
	res, err := b.runner.Run(ctx, b.Command(env))
	if err != nil {
		return nil, err
	}

	vars := b.cfg.Parser.Parse(res.Stdout)
	if len(vars) == 0 {
		notify.Errorf(b.out, "Failed to configure Docker env")
		if res.Stdout == "" {
			return nil, fmt.Errorf("%w: docker-env printed nothing", ErrDegraded)
		}
		return nil, fmt.Errorf("%w: no %s, %s or %s in docker-env output",
			ErrDegraded, DockerHost, DockerTLSVerify, DockerCertPath)
	}

	notify.Infof(b.out, "Docker pointed to Minikube: %s", vars[DockerHost])
	for _, k := range recognizedKeys {
		if _, ok := vars[k]; !ok {
			b.log.Debug("docker-env variable absent", "key", k)
		}
	}

	b.probe(ctx, vars)
	return vars, nil
}

func (b *Bridge) probe(ctx context.Context, vars map[string]string) {
	engine, err := b.cfg.NewEngine(vars)
	if err != nil {
		notify.Warningf(b.out, "Could not reach the Minikube Docker engine: %v", err)
		return
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			b.log.Debug("close docker client", "error", cerr)
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, b.cfg.ProbeTimeout)
	defer cancel()

	v, err := engine.ServerVersion(probeCtx)
	if err != nil {
		notify.Warningf(b.out, "Could not reach the Minikube Docker engine: %v", err)
		return
	}
	b.log.Debug("docker engine reachable", "version", v.Version, "api_version", v.APIVersion, "os", v.Os)
	notify.Infof(b.out, "Docker engine: %s (%s/%s)", v.Version, v.Os, v.Arch)
}
