// Command devup brings up the local development environment: it clears stale
// state, starts minikube, builds the service images, applies terraform and
// opens a tunnel to the ingress.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giantswarm/devup"
	"github.com/giantswarm/devup/internal/logutil"
	"github.com/giantswarm/devup/internal/notify"
)

func main() {
	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			notify.Errorf(errWriter, "panic recovered: %v\n%s", r, debug.Stack())
			exitCode = 1
		}
	}()
	return runner(args)
}

func runWithArgs(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(run)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return exitCode(rootCmd.ErrOrStderr(), err)
}

// exitCode reports err and maps it to a process status. Failed commands have
// already been reported by the step that ran them.
func exitCode(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, devup.ErrInterrupted):
		notify.Warningf(w, "Interrupted: %v", err)
	case errors.Is(err, devup.ErrCommandFailed):
	default:
		notify.Errorf(w, "%v", err)
	}
	return 1
}

type flags struct {
	root      string
	logLevel  string
	logFormat string
}

type runFunc func(cmd *cobra.Command, f flags) error

func newRootCmd(fn runFunc) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "devup",
		Short: "Bring up the local minikube development environment",
		Long: `devup clears a stale terraform lock, removes resources left by a
previous run, makes sure minikube is running, builds one image per service
directory, applies terraform/local and waits for the pods before opening a
port-forward to the ingress. The tunnel runs until interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fn(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.root, "root", os.Getenv("DEVUP_ROOT"), "project root (default: working directory)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "override log.level from the config file")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "override log.format from the config file")
	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	root := f.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}

	cfg, err := devup.LoadConfig(root)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}

	handler, err := logutil.NewHandler(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", devup.ErrInvalidConfig, err)
	}
	devup.SetLogger(slog.New(handler))

	p := devup.NewPipeline(cfg,
		devup.WithProjectRoot(root),
		devup.WithOutput(cmd.OutOrStdout()),
	)
	return p.Run(cmd.Context())
}
