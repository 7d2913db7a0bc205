// Package reaper tears down what a previous devup run deployed so the next
// terraform apply starts from an empty namespace.
//
// Every deletion is best-effort: an unreachable cluster, a missing kubeconfig
// or an already-empty namespace all count as success. After issuing the
// deletions the reaper waits a fixed settle delay. Nothing confirms that
// termination finished within that delay.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/utils/clock"

	"github.com/giantswarm/devup/internal/clockutil"
	"github.com/giantswarm/devup/internal/notify"
)

// requestTimeout bounds each API request so an unreachable cluster cannot
// stall the run.
const requestTimeout = 10 * time.Second

// systemNamespaces are never deleted even if configured as the target.
var systemNamespaces = map[string]struct{}{
	"default":         {},
	"kube-system":     {},
	"kube-public":     {},
	"kube-node-lease": {},
}

// ClientFactory resolves the client and the namespace the kubeconfig's
// current context points at.
type ClientFactory func() (kubernetes.Interface, string, error)

// Config configures a Reaper.
type Config struct {
	// Namespace is deleted outright after its workloads.
	Namespace string
	// SettleDelay is how long to wait after issuing deletions.
	SettleDelay time.Duration
	// Clock drives the settle delay. Nil means the real clock.
	Clock clock.Clock
	// NewClient builds the client lazily. Nil means DefaultClientFactory.
	NewClient ClientFactory
}

// Reaper deletes prior deployment state.
type Reaper struct {
	cfg Config
	out io.Writer
	log *slog.Logger
}

// New returns a Reaper. User-facing lines go to out. A nil logger defaults
// to slog.Default().
func New(cfg Config, out io.Writer, logger *slog.Logger) *Reaper {
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.NewClient == nil {
		cfg.NewClient = DefaultClientFactory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{cfg: cfg, out: out, log: logger}
}

// DefaultClientFactory loads the kubeconfig with the standard client-go
// loading rules (KUBECONFIG, then ~/.kube/config), the same way kubectl does.
func DefaultClientFactory() (kubernetes.Interface, string, error) {
	cc := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		clientcmd.NewDefaultClientConfigLoadingRules(),
		&clientcmd.ConfigOverrides{},
	)

	ns, _, err := cc.Namespace()
	if err != nil {
		return nil, "", fmt.Errorf("resolve kubeconfig namespace: %w", err)
	}

	restCfg, err := cc.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("load kubeconfig: %w", err)
	}
	restCfg.Timeout = requestTimeout

	client, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, "", fmt.Errorf("create kubernetes client: %w", err)
	}
	return client, ns, nil
}

// Reap deletes deployments, services, ingresses and configmaps in the
// current context's namespace, then the configured namespace, then waits
// the settle delay. Only an interrupt during the wait is returned.
func (r *Reaper) Reap(ctx context.Context) error {
	notify.Infof(r.out, "Force deleting all deployments, services, and ingress...")

	if err := r.deleteAll(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Debug("cleanup incomplete", "error", err)
	}

	notify.Infof(r.out, "Waiting %s for resources to terminate...", r.cfg.SettleDelay)
	if err := clockutil.Sleep(ctx, r.cfg.Clock, r.cfg.SettleDelay); err != nil {
		return err
	}

	notify.Successf(r.out, "Cleanup complete.")
	return nil
}

func (r *Reaper) deleteAll(ctx context.Context) error {
	client, contextNamespace, err := r.cfg.NewClient()
	if err != nil {
		return err
	}
	if contextNamespace == "" {
		contextNamespace = metav1.NamespaceDefault
	}

	var errs []error
	for _, c := range collections(client) {
		n, err := deleteCollection(ctx, c, contextNamespace)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", c.kind, err))
		}
		r.log.Debug("deleted prior resources", "kind", c.kind, "namespace", contextNamespace, "count", n)
	}

	if err := r.deleteNamespace(ctx, client); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *Reaper) deleteNamespace(ctx context.Context, client kubernetes.Interface) error {
	ns := r.cfg.Namespace
	if ns == "" {
		return nil
	}
	if _, ok := systemNamespaces[ns]; ok {
		r.log.Debug("not deleting system namespace", "namespace", ns)
		return nil
	}

	err := client.CoreV1().Namespaces().Delete(ctx, ns, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete namespace %s: %w", ns, err)
	}
	r.log.Debug("namespace deletion issued", "namespace", ns)
	return nil
}

// collection is one resource kind the reaper empties.
type collection struct {
	kind string
	list func(ctx context.Context, ns string) ([]string, error)
	del  func(ctx context.Context, ns, name string) error
}

func deleteCollection(ctx context.Context, c collection, ns string) (int, error) {
	names, err := c.list(ctx, ns)
	if err != nil {
		return 0, err
	}

	var errs []error
	deleted := 0
	for _, name := range names {
		if err := c.del(ctx, ns, name); err != nil {
			if apierrors.IsNotFound(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("%s/%s: %w", ns, name, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func collections(client kubernetes.Interface) []collection {
	background := metav1.DeletePropagationBackground
	opts := metav1.DeleteOptions{PropagationPolicy: &background}

	return []collection{
		{
			kind: "deployments",
			list: func(ctx context.Context, ns string) ([]string, error) {
				l, err := client.AppsV1().Deployments(ns).List(ctx, metav1.ListOptions{})
				if err != nil {
					return nil, err
				}
				return namesOf(l.Items), nil
			},
			del: func(ctx context.Context, ns, name string) error {
				return client.AppsV1().Deployments(ns).Delete(ctx, name, opts)
			},
		},
		{
			kind: "services",
			list: func(ctx context.Context, ns string) ([]string, error) {
				l, err := client.CoreV1().Services(ns).List(ctx, metav1.ListOptions{})
				if err != nil {
					return nil, err
				}
				return namesOf(l.Items), nil
			},
			del: func(ctx context.Context, ns, name string) error {
				return client.CoreV1().Services(ns).Delete(ctx, name, opts)
			},
		},
		{
			kind: "ingresses",
			list: func(ctx context.Context, ns string) ([]string, error) {
				l, err := client.NetworkingV1().Ingresses(ns).List(ctx, metav1.ListOptions{})
				if err != nil {
					return nil, err
				}
				return namesOf(l.Items), nil
			},
			del: func(ctx context.Context, ns, name string) error {
				return client.NetworkingV1().Ingresses(ns).Delete(ctx, name, opts)
			},
		},
		{
			kind: "configmaps",
			list: func(ctx context.Context, ns string) ([]string, error) {
				l, err := client.CoreV1().ConfigMaps(ns).List(ctx, metav1.ListOptions{})
				if err != nil {
					return nil, err
				}
				return namesOf(l.Items), nil
			},
			del: func(ctx context.Context, ns, name string) error {
				return client.CoreV1().ConfigMaps(ns).Delete(ctx, name, opts)
			},
		},
	}
}

// namesOf collects object names from a typed list's Items.
func namesOf[T any, P interface {
	*T
	GetName() string
}](items []T) []string {
	names := make([]string, 0, len(items))
	for i := range items {
		names = append(names, P(&items[i]).GetName())
	}
	return names
}
