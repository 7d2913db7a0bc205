// Package images builds one container image per service against whatever
// engine the pipeline environment points at.
package images

import (
	"context"
	"io"
	"log/slog"

	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
)

// Tag returns the image reference built for service.
func Tag(service string) string {
	return service + "-service:latest"
}

// Builder runs docker build for each service in turn.
type Builder struct {
	runner process.Runner
	root   string
	out    io.Writer
	log    *slog.Logger
}

// New returns a Builder that builds from directories under root.
func New(runner process.Runner, root string, out io.Writer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{runner: runner, root: root, out: out, log: logger}
}

// Command returns the build command for service.
func (b *Builder) Command(service string, env process.Env) process.Command {
	return process.Command{
		Name:    "docker",
		Args:    []string{"build", "-t", Tag(service), "./" + service},
		Dir:     b.root,
		Env:     env,
		Capture: true,
		Policy:  process.FailFast,
	}
}

// Build builds services sequentially in the given order. The first failure
// stops the loop and is returned; later services are not attempted.
func (b *Builder) Build(ctx context.Context, services []string, env process.Env) error {
	if len(services) == 0 {
		notify.Warningf(b.out, "No services found to build.")
		return nil
	}

	for _, svc := range services {
		notify.Infof(b.out, "Building: %s...", svc)
		if _, err := b.runner.Run(ctx, b.Command(svc, env)); err != nil {
			return err
		}
		b.log.Debug("image built", "service", svc, "tag", Tag(svc))
	}

	notify.Successf(b.out, "Images built.")
	return nil
}
