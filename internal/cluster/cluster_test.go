package cluster

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/giantswarm/devup/internal/process"
	"github.com/giantswarm/devup/internal/process/processtest"
)

const runningStatus = `minikube
type: Control Plane
host: Running
kubelet: Running
apiserver: Running
kubeconfig: Configured`

func TestBootstrapper_Ensure(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		script    func(*processtest.FakeRunner)
		wantAddr  string
		wantCalls []string
		wantErr   bool
		wantOut   string
	}{
		"already running": {
			script: func(f *processtest.FakeRunner) {
				f.On("minikube status", processtest.Response{Stdout: runningStatus})
				f.On("minikube ip", processtest.Response{Stdout: "192.168.49.2\n"})
			},
			wantAddr:  "192.168.49.2",
			wantCalls: []string{"minikube status", "minikube ip"},
			wantOut:   "Minikube is running.",
		},
		"stopped cluster is started": {
			script: func(f *processtest.FakeRunner) {
				f.On("minikube status", processtest.Response{Stdout: "host: Stopped", ExitCode: 7})
				f.On("minikube ip", processtest.Response{Stdout: "192.168.49.2"})
			},
			wantAddr:  "192.168.49.2",
			wantCalls: []string{"minikube status", "minikube start", "minikube ip"},
			wantOut:   "Starting Minikube...",
		},
		"ip failure yields placeholder": {
			script: func(f *processtest.FakeRunner) {
				f.On("minikube status", processtest.Response{Stdout: runningStatus})
				f.On("minikube ip", processtest.Response{ExitCode: 1})
			},
			wantAddr:  PlaceholderIP,
			wantCalls: []string{"minikube status", "minikube ip"},
			wantOut:   "Minikube IP: <minikube-ip>",
		},
		"start failure is fatal": {
			script: func(f *processtest.FakeRunner) {
				f.On("minikube status", processtest.Response{ExitCode: 85})
				f.On("minikube start", processtest.Response{ExitCode: 1})
			},
			wantCalls: []string{"minikube status", "minikube start"},
			wantErr:   true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			runner := processtest.NewFakeRunner()
			tc.script(runner)

			var out bytes.Buffer
			addr, err := New(runner, "/src/project", &out, nil).Ensure(context.Background(), process.Env{})

			if tc.wantErr {
				if !errors.Is(err, process.ErrCommandFailed) {
					t.Fatalf("Ensure() error = %v, want ErrCommandFailed", err)
				}
			} else if err != nil {
				t.Fatalf("Ensure() error = %v", err)
			}
			if addr != tc.wantAddr {
				t.Errorf("address = %q, want %q", addr, tc.wantAddr)
			}
			if got := runner.Lines(); !slices.Equal(got, tc.wantCalls) {
				t.Errorf("calls = %v, want %v", got, tc.wantCalls)
			}
			if !strings.Contains(out.String(), tc.wantOut) {
				t.Errorf("output %q missing %q", out.String(), tc.wantOut)
			}
		})
	}
}

func TestBootstrapper_CommandShapes(t *testing.T) {
	t.Parallel()

	runner := processtest.NewFakeRunner()
	runner.On("minikube status", processtest.Response{ExitCode: 1})

	env := process.EnvFromList([]string{"HOME=/home/dev"})
	if _, err := New(runner, "/src/project", &bytes.Buffer{}, nil).Ensure(context.Background(), env); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	calls := runner.Calls()
	want := []struct {
		capture bool
		policy  process.Policy
	}{
		{capture: true, policy: process.BestEffort},
		{capture: false, policy: process.FailFast},
		{capture: true, policy: process.BestEffort},
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(calls), len(want))
	}
	for i, w := range want {
		if calls[i].Capture != w.capture || calls[i].Policy != w.policy {
			t.Errorf("call %d (%s): capture=%v policy=%v, want capture=%v policy=%v",
				i, calls[i], calls[i].Capture, calls[i].Policy, w.capture, w.policy)
		}
		if calls[i].Dir != "/src/project" {
			t.Errorf("call %d Dir = %q", i, calls[i].Dir)
		}
		if home, _ := calls[i].Env.Get("HOME"); home != "/home/dev" {
			t.Errorf("call %d did not receive the base environment", i)
		}
	}
}

func TestIsRunning(t *testing.T) {
	t.Parallel()

	if !IsRunning(runningStatus) {
		t.Error("IsRunning(running status) = false")
	}
	if IsRunning("host: Stopped\nkubelet: Stopped") {
		t.Error("IsRunning(stopped status) = true")
	}
	if IsRunning("") {
		t.Error("IsRunning(\"\") = true")
	}
}
