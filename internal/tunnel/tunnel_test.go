package tunnel

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/devup/internal/process"
	"github.com/giantswarm/devup/internal/process/processtest"
)

// syncBuffer is written by the probe goroutine while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(localPort int) Config {
	return Config{
		Namespace:     "app",
		Service:       "ingress-nginx",
		LocalPort:     localPort,
		ContainerPort: 80,
		ProbeInterval: 10 * time.Millisecond,
		ProbeTimeout:  100 * time.Millisecond,
		PortInUse:     func(int) bool { return false },
	}
}

func TestOpener_Command(t *testing.T) {
	t.Parallel()

	o := New(testConfig(8080), processtest.NewFakeRunner(), &syncBuffer{}, nil)
	c := o.Command(process.Env{})

	if got, want := c.String(), "kubectl port-forward -n app svc/ingress-nginx 8080:80"; got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
	if c.Capture {
		t.Error("port-forward must stream its output")
	}
	if c.Policy != process.FailFast {
		t.Errorf("policy = %v, want fail-fast", c.Policy)
	}
	if got := o.URL(); got != "http://localhost:8080" {
		t.Errorf("URL() = %q", got)
	}
}

func TestOpener_InterruptIsGraceful(t *testing.T) {
	t.Parallel()

	runner := processtest.NewFakeRunner().On("kubectl port-forward", processtest.Response{Block: true})
	out := &syncBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	if err := New(testConfig(8080), runner, out, nil).Open(ctx, process.Env{}); err != nil {
		t.Fatalf("Open() error = %v, want nil on interrupt", err)
	}

	for _, want := range []string{
		"Starting port-forwarding to Ingress (ingress-nginx)",
		"Mapping: localhost:8080 -> Container:80",
		"Access URL: http://localhost:8080",
		"Press Ctrl+C to stop.",
		"Goodbye!",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q missing %q", out.String(), want)
		}
	}
	if got := runner.Lines(); len(got) != 1 || got[0] != "kubectl port-forward -n app svc/ingress-nginx 8080:80" {
		t.Errorf("calls = %v", got)
	}
}

func TestOpener_ReportsReadiness(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	runner := processtest.NewFakeRunner().On("kubectl port-forward", processtest.Response{Block: true})
	out := &syncBuffer{}
	cfg := testConfig(port)
	cfg.ProbeTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- New(cfg, runner, out, nil).Open(ctx, process.Env{}) }()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "Tunnel ready at") {
		if time.Now().After(deadline) {
			t.Fatalf("readiness never reported, output %q", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Open() error = %v", err)
	}
}

func TestOpener_PortForwardFailure(t *testing.T) {
	t.Parallel()

	runner := processtest.NewFakeRunner().On("kubectl port-forward", processtest.Response{ExitCode: 1})
	out := &syncBuffer{}

	err := New(testConfig(8080), runner, out, nil).Open(context.Background(), process.Env{})
	if !errors.Is(err, process.ErrCommandFailed) {
		t.Fatalf("Open() error = %v, want ErrCommandFailed", err)
	}
	if strings.Contains(out.String(), "Goodbye!") {
		t.Error("a failed port-forward must not say goodbye")
	}
}

func TestOpener_WarnsWhenPortBusy(t *testing.T) {
	t.Parallel()

	runner := processtest.NewFakeRunner()
	out := &syncBuffer{}
	cfg := testConfig(8080)
	cfg.PortInUse = func(port int) bool { return port == 8080 }

	if err := New(cfg, runner, out, nil).Open(context.Background(), process.Env{}); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !strings.Contains(out.String(), "Port 8080 is already in use") {
		t.Errorf("output %q missing port warning", out.String())
	}
}
