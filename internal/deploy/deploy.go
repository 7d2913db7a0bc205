// Package deploy applies the local terraform configuration.
package deploy

import (
	"context"
	"io"
	"log/slog"

	"github.com/giantswarm/devup/internal/notify"
	"github.com/giantswarm/devup/internal/process"
)

// Applier runs terraform init and apply in a fixed directory.
type Applier struct {
	runner process.Runner
	dir    string
	out    io.Writer
	log    *slog.Logger
}

// New returns an Applier working in dir.
func New(runner process.Runner, dir string, out io.Writer, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{runner: runner, dir: dir, out: out, log: logger}
}

// Dir returns the terraform working directory.
func (a *Applier) Dir() string {
	return a.dir
}

// Apply runs `terraform init` then `terraform apply -auto-approve`, both
// streamed so progress is visible. Either failing stops the step.
func (a *Applier) Apply(ctx context.Context, env process.Env) error {
	for _, args := range [][]string{
		{"init"},
		{"apply", "-auto-approve"},
	} {
		a.log.Debug("terraform", "phase", args[0], "dir", a.dir)
		if _, err := a.runner.Run(ctx, process.Command{
			Name:   "terraform",
			Args:   args,
			Dir:    a.dir,
			Env:    env,
			Policy: process.FailFast,
		}); err != nil {
			return err
		}
	}

	notify.Successf(a.out, "Terraform apply completed.")
	return nil
}
