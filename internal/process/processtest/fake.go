// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"strings"
	"sync"

	"github.com/giantswarm/devup/internal/process"
)

// Response is the scripted outcome for a command line.
type Response struct {
	Stdout   string
	ExitCode int
	// Err, when set, is returned as-is instead of the policy outcome.
	Err error
	// Block makes Run wait until the context is cancelled.
	Block bool
}

// FakeRunner records every command and answers from a script keyed by the
// command's prefix. Unscripted commands succeed with empty output.
//
// Non-zero exit codes follow the policy the real runner applies:
// best-effort commands return an empty Result, fail-fast commands return a
// *process.CommandError.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]Response
	prefixes  []string
	calls     []process.Command
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]Response)}
}

// On queues responses for commands whose String() starts with prefix. Each
// call consumes one response; the last one repeats once the queue is down to
// it. The longest matching prefix wins.
func (f *FakeRunner) On(prefix string, responses ...Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.responses[prefix]; !ok {
		f.prefixes = append(f.prefixes, prefix)
	}
	f.responses[prefix] = append(f.responses[prefix], responses...)
	return f
}

// Run implements process.Runner.
func (f *FakeRunner) Run(ctx context.Context, c process.Command) (process.Result, error) {
	resp := f.record(c)

	if resp.Block {
		<-ctx.Done()
		return process.Result{}, ctx.Err()
	}
	if resp.Err != nil {
		return process.Result{}, resp.Err
	}
	if resp.ExitCode != 0 {
		if c.Policy == process.BestEffort {
			return process.Result{}, nil
		}
		return process.Result{}, &process.CommandError{Command: c.String(), ExitCode: resp.ExitCode}
	}
	return process.Result{Stdout: strings.TrimSpace(resp.Stdout)}, nil
}

func (f *FakeRunner) record(c process.Command) Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, c)

	line := c.String()
	best := ""
	found := false
	for _, p := range f.prefixes {
		if strings.HasPrefix(line, p) && (!found || len(p) > len(best)) {
			best, found = p, true
		}
	}
	if !found {
		return Response{}
	}

	queue := f.responses[best]
	if len(queue) == 0 {
		return Response{}
	}
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[best] = queue[1:]
	}
	return resp
}

// Calls returns a copy of the recorded commands in call order.
func (f *FakeRunner) Calls() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]process.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Lines returns the recorded commands rendered with Command.String.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many recorded commands start with prefix.
func (f *FakeRunner) Count(prefix string) int {
	n := 0
	for _, l := range f.Lines() {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
