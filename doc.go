// Package devup brings up a local multi-service deployment in one call.
//
// A run clears stale state from the previous run, makes sure minikube is
// running, points the docker CLI at minikube's engine, rebuilds every
// service image, applies the terraform plan, waits for the pods to settle
// and finally holds a kubectl port-forward open in the foreground.
//
// # Basic Usage
//
//	import "github.com/giantswarm/devup"
//
//	cfg, err := devup.LoadConfig(root)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	p := devup.NewPipeline(cfg, devup.WithProjectRoot(root))
//	if err := p.Run(ctx); err != nil {
//	    os.Exit(1)
//	}
//
// # Failure Policy
//
// The unlock, reap and bridge-environment steps are best-effort: a failure
// is logged and the run continues. Every other step is fail-fast: the first
// failing command stops the run and Run returns an error matching
// ErrCommandFailed. Pods that do not settle within the attempt ceiling only
// produce a warning; the run moves on to the tunnel.
//
// # Project Layout
//
// The project root holds one directory per service (each with a
// Dockerfile), driver/config.json and terraform/local. Nothing is retried
// or rolled back: the next run's unlock and reap steps are the recovery
// mechanism.
package devup
